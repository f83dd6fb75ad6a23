package splitter

import (
	"errors"
	"io"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
	"github.com/dmlogsplit/dmlogsplit/internal/logging"
	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
	"github.com/dmlogsplit/dmlogsplit/internal/runctl"
	"github.com/dmlogsplit/dmlogsplit/internal/workqueue"
)

// Input is one named input stream, already decompressed.
type Input struct {
	Name   string
	Reader io.Reader
}

// Splitter is the single producer feeding the work queue. It reads
// the inputs in order and assigns sequence numbers that are dense and
// monotonic across the whole run.
type Splitter struct {
	inputs []Input
	queue  *workqueue.Queue
	ctl    *runctl.Controller
	accel  bool
}

// New returns a Splitter over the given inputs.
func New(inputs []Input, queue *workqueue.Queue, ctl *runctl.Controller) *Splitter {
	return &Splitter{inputs: inputs, queue: queue, ctl: ctl, accel: true}
}

// Run is the splitter goroutine body. On ordinary end of input it
// signals SplitterFinished on the controller and returns. On any
// failure it records the error on the controller and returns.
func (s *Splitter) Run() {
	log := logging.Component("splitter")

	var seq uint64
	defer func() { log.Debug("splitter exiting", "records", seq) }()
	for _, in := range s.inputs {
		var sc *Scanner
		if s.accel {
			sc = NewScanner(in.Reader)
		} else {
			sc = NewScalarScanner(in.Reader)
		}
		for {
			text, startLine, endLine, err := sc.Next()
			if err == io.EOF {
				break
			}
			if errors.Is(err, ErrTruncated) {
				// Discard the partial trailing record.
				logging.JobLogger(in.Name, startLine, endLine).
					Warn("discarding truncated record at end of input")
				if m := metrics.Get(); m != nil {
					m.WarningsEmitted.Inc()
				}
				break
			}

			pushed, pushErr := s.queue.Push(job.Job{
				Seq:        seq,
				Text:       text,
				SourceName: in.Name,
				StartLine:  startLine,
				EndLine:    endLine,
			})
			if pushErr != nil {
				s.ctl.Fail(pushErr)
				return
			}
			if !pushed {
				// Cancelled while waiting on back-pressure.
				return
			}
			seq++
			if m := metrics.Get(); m != nil {
				m.JobsSplit.Inc()
			}
		}
	}

	// The engine starts the controller only after spawning every
	// subsystem; end of input may be reached before that.
	s.ctl.Wait(func(st runctl.State) bool { return st != runctl.Initializing })
	if err := s.ctl.SplitterFinished(); err != nil {
		s.ctl.Fail(err)
	}
}
