package actions

import (
	"fmt"
	"io"
	"regexp"

	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
	"github.com/dmlogsplit/dmlogsplit/internal/reorder"
	"github.com/dmlogsplit/dmlogsplit/internal/sink"
)

// PDCPDirection is the transmission direction of a PDCP cipher data
// packet.
type PDCPDirection int

const (
	DirectionUnknown PDCPDirection = iota
	DirectionUplink
	DirectionDownlink
)

func (d PDCPDirection) String() string {
	switch d {
	case DirectionUplink:
		return "uplink"
	case DirectionDownlink:
		return "downlink"
	default:
		return "unknown"
	}
}

// DisruptionEvent identifies one kind of RRC-layer state transition
// that disrupts the data plane.
type DisruptionEvent int

const (
	DisruptionReestablishmentRequest DisruptionEvent = iota
	DisruptionReestablishmentComplete
	DisruptionReconfiguration
	DisruptionReconfigurationComplete
	DisruptionConnectionRequest
	DisruptionConnectionSetup
	numDisruptionEvents
)

var disruptionEventNames = [numDisruptionEvents]string{
	"RRCConnectionReestablishmentRequest",
	"RRCConnectionReestablishmentComplete",
	"RRCConnectionReconfiguration",
	"RRCConnectionReconfigurationComplete",
	"RRCConnectionRequest",
	"RRCConnectionSetup",
}

func (e DisruptionEvent) String() string { return disruptionEventNames[e] }

// DisruptionEvents tracks which disruptions have happened since the
// last PDCP data packet.
type DisruptionEvents struct {
	Active bool
	Events [numDisruptionEvents]bool
}

// Set marks one disruption as pending.
func (d *DisruptionEvents) Set(e DisruptionEvent) {
	d.Active = true
	d.Events[e] = true
}

// TimeRange is one inclusive keep interval in unix seconds.
type TimeRange struct {
	Start int64
	End   int64
}

// Context is the cross-packet action state. It is mutated only from
// within ordered-task closures, i.e. only by the executor goroutine,
// which makes it race-free without locking. The configured fields
// (Ranges, TypeRegex) are read-only after startup and may also be read
// by extractor workers.
type Context struct {
	Out  sink.Writer
	Warn io.Writer

	// Last PDCP cipher data packet seen, and the disruptions since.
	LastPDCPTimestamp string
	LastPDCPDirection PDCPDirection
	Disruptions       DisruptionEvents

	// Dedup high-water mark.
	LatestSeenMicros int64
	LatestSeenString string

	// Configured at startup.
	Ranges    []TimeRange
	TypeRegex *regexp.Regexp
	Reorder   *reorder.Window

	warnCount uint64
}

// Warnings returns the number of soft warnings emitted. Read it only
// after the run has finished.
func (c *Context) Warnings() uint64 { return c.warnCount }

// NewContext returns a Context writing to out and warning to warn.
func NewContext(out sink.Writer, warn io.Writer) *Context {
	return &Context{
		Out:               out,
		Warn:              warn,
		LastPDCPTimestamp: "unknown",
		LatestSeenMicros:  -1,
	}
}

// warnf writes an in-order soft warning to standard error.
func (c *Context) warnf(format string, args ...any) {
	fmt.Fprintf(c.Warn, format, args...)
	c.warnCount++
	if m := metrics.Get(); m != nil {
		m.WarningsEmitted.Inc()
	}
}

// printf writes a line of user-visible output.
func (c *Context) printf(format string, args ...any) error {
	return c.Out.WriteString(fmt.Sprintf(format, args...))
}

// lastPDCPSuffix formats the "LastPDCPPacketTimestamp" suffix used by
// several RRC event lines.
func (c *Context) lastPDCPSuffix() string {
	return fmt.Sprintf("LastPDCPPacketTimestamp: %s, Direction: %s",
		c.LastPDCPTimestamp, c.LastPDCPDirection)
}
