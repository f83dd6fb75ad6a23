// Package config holds the run configuration assembled from the
// command line and validates it before any subsystem is spawned.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
)

// Mode selects what per-packet work to perform.
type Mode int

const (
	// ModeUnset means no mode flag was given. Rejected by Validate.
	ModeUnset Mode = iota
	// ModeExtract runs the enabled field extractors on each packet.
	ModeExtract
	// ModeRange echoes packets whose timestamp falls in a keep interval.
	ModeRange
	// ModeDedup drops packets whose timestamp is older than the newest
	// one already emitted.
	ModeDedup
	// ModeReorder stably sorts packets within a sliding time window.
	ModeReorder
	// ModeTypeFilter echoes packets whose type matches a regex.
	ModeTypeFilter
)

func (m Mode) String() string {
	switch m {
	case ModeExtract:
		return "extract"
	case ModeRange:
		return "range"
	case ModeDedup:
		return "dedup"
	case ModeReorder:
		return "reorder"
	case ModeTypeFilter:
		return "type-filter"
	default:
		return "unset"
	}
}

// Worker pool bounds. The queue water marks are multiplied by the
// worker count to size the bounded job queue.
const (
	ThreadLimit   = 256
	ThreadDefault = 16

	HighWaterMark = 128
	LowWaterMark  = 8
)

// Config is the fully resolved run configuration.
type Config struct {
	// Inputs are the input file paths, in the order given on the
	// command line. Empty means read standard input.
	Inputs []string

	// Threads is the extractor worker count.
	Threads int

	// Output is the output sink: "" or "-" for stdout, a bare path,
	// or a file://, s3:// or gs:// URI.
	Output string

	Mode Mode

	// ExtractActions are the enabled extractor names for ModeExtract.
	ExtractActions []string

	// RangePath is the keep-interval file for ModeRange.
	RangePath string

	// ReorderToleranceMicros is the out-of-order tolerance for
	// ModeReorder, in microseconds.
	ReorderToleranceMicros int64

	// TypePattern is the packet type regex for ModeTypeFilter.
	TypePattern string
	// TypeRegex is the compiled form of TypePattern, set by Validate.
	TypeRegex *regexp.Regexp

	// MetricsAddr optionally starts the Prometheus endpoint, e.g.
	// ":9090". Empty disables it.
	MetricsAddr string

	LogFormat string
	LogLevel  string

	// Quiet suppresses the run summary table on clean exit.
	Quiet bool
}

// Validate checks the configuration and resolves derived fields. It
// returns an ArgumentError so the caller can report it and exit before
// any worker starts.
func (c *Config) Validate() error {
	if c.Threads <= 0 || c.Threads > ThreadLimit {
		return errs.NewArgumentError(
			"invalid thread number %d, it should be between 1 and %d",
			c.Threads, ThreadLimit)
	}

	switch c.Mode {
	case ModeUnset:
		return errs.NewArgumentError(
			"exactly one of --extract, --range, --dedup, --reorder or --filter-type is required")
	case ModeExtract:
		if len(c.ExtractActions) == 0 {
			return errs.NewArgumentError("--extract requires a non-empty action list")
		}
	case ModeRange:
		if c.RangePath == "" {
			return errs.NewArgumentError("--range requires a range file path")
		}
		if _, err := os.Stat(c.RangePath); err != nil {
			return errs.NewArgumentError("failed to open range file %q: %v", c.RangePath, err)
		}
	case ModeReorder:
		if c.ReorderToleranceMicros <= 0 {
			return errs.NewArgumentError(
				"reorder window size must be greater than 0, given: %d",
				c.ReorderToleranceMicros)
		}
	case ModeTypeFilter:
		re, err := regexp.Compile(c.TypePattern)
		if err != nil {
			return errs.NewArgumentError("invalid type pattern %q: %v", c.TypePattern, err)
		}
		c.TypeRegex = re
	}

	for _, path := range c.Inputs {
		if _, err := os.Stat(path); err != nil {
			return errs.NewArgumentError("failed to open input file %q: %v", path, err)
		}
	}

	return nil
}

// ParseExtractList splits the comma-separated --extract argument.
func ParseExtractList(list string) []string {
	var out []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// QueueHighWater returns the job count at which the splitter blocks.
func (c *Config) QueueHighWater() int {
	return HighWaterMark * c.Threads
}

// QueueLowWater returns the job count at which the splitter resumes.
func (c *Config) QueueLowWater() int {
	return LowWaterMark * c.Threads
}

// Describe returns a short human-readable mode description for logs.
func (c *Config) Describe() string {
	switch c.Mode {
	case ModeExtract:
		return fmt.Sprintf("extract [%s]", strings.Join(c.ExtractActions, ","))
	case ModeRange:
		return fmt.Sprintf("range %s", c.RangePath)
	case ModeReorder:
		return fmt.Sprintf("reorder %dus", c.ReorderToleranceMicros)
	case ModeTypeFilter:
		return fmt.Sprintf("type-filter %s", c.TypePattern)
	default:
		return c.Mode.String()
	}
}
