// Package engine wires the splitter, the work queue, the extractor
// pool and the in-order executor together under the run controller,
// and drives the run state machine from the calling goroutine.
package engine

import (
	"io"
	"sync"
	"time"

	"github.com/dmlogsplit/dmlogsplit/internal/actions"
	"github.com/dmlogsplit/dmlogsplit/internal/config"
	"github.com/dmlogsplit/dmlogsplit/internal/executor"
	"github.com/dmlogsplit/dmlogsplit/internal/extractor"
	"github.com/dmlogsplit/dmlogsplit/internal/logging"
	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
	"github.com/dmlogsplit/dmlogsplit/internal/reorder"
	"github.com/dmlogsplit/dmlogsplit/internal/runctl"
	"github.com/dmlogsplit/dmlogsplit/internal/sink"
	"github.com/dmlogsplit/dmlogsplit/internal/splitter"
	"github.com/dmlogsplit/dmlogsplit/internal/workqueue"
)

// Stats summarizes a completed run.
type Stats struct {
	Records  uint64
	Warnings uint64
	Elapsed  time.Duration
}

// Engine owns one run of the pipeline.
type Engine struct {
	cfg  *config.Config
	out  sink.Writer
	warn io.Writer
}

// New returns an Engine writing to out and sending soft warnings to
// warn (standard error in the CLI).
func New(cfg *config.Config, out sink.Writer, warn io.Writer) *Engine {
	return &Engine{cfg: cfg, out: out, warn: warn}
}

// Run processes the inputs to completion. It spawns the splitter, the
// extractor pool and the executor, then walks the run state machine:
//
//	Initializing -> AllRunning -> SplitterFinished ->
//	ExtractorFinished -> ExecutorFinished
//
// Any component failure moves the state to Error, at which point Run
// cancels everything, joins the goroutines and returns the stored
// error.
func (e *Engine) Run(inputs []splitter.Input) (Stats, error) {
	start := time.Now()
	log := logging.Component("engine")

	ctl := runctl.New()
	ctx := actions.NewContext(e.out, e.warn)

	// Action registry initialization happens in Initializing, before
	// any goroutine is spawned, so argument problems never leave a
	// half-started pipeline behind.
	pipeline, err := actions.Build(e.cfg, ctx)
	if err != nil {
		return Stats{}, err
	}
	if e.cfg.Mode == config.ModeReorder {
		ctx.Reorder = reorder.NewWindow(e.cfg.ReorderToleranceMicros, func(text string) error {
			return e.out.WriteString(text + "\n")
		})
	}

	queue := workqueue.New(e.cfg.QueueHighWater(), e.cfg.QueueLowWater(), e.cfg.Threads)
	exec := executor.New(ctl)
	pool := extractor.New(e.cfg.Threads, queue, exec, pipeline, ctl)
	split := splitter.New(inputs, queue, ctl)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		split.Run()
	}()
	go func() {
		defer wg.Done()
		exec.Run()
	}()
	pool.Start()
	ctl.Start()

	log.Debug("all subsystems running", "threads", e.cfg.Threads)

	// End-of-input handoff: once the splitter reports done, tell the
	// queue so draining workers can exit; once the last worker is
	// out, tell the executor no more tasks will arrive.
	st := ctl.Wait(func(s runctl.State) bool { return s != runctl.AllRunning })
	if st != runctl.Error {
		queue.SplitterFinished()
		st = ctl.Wait(func(s runctl.State) bool { return s != runctl.SplitterFinished })
	}
	if st != runctl.Error {
		exec.NoMoreTasks()
		st = ctl.Wait(func(s runctl.State) bool { return s != runctl.ExtractorFinished })
	}

	if st == runctl.Error {
		// Cancellation fan-out: wake every suspension point so all
		// goroutines reach their exit.
		queue.Cancel()
		exec.Cancel()
		wg.Wait()
		if m := metrics.Get(); m != nil {
			m.FatalErrors.Inc()
		}
		return Stats{}, ctl.Err()
	}

	wg.Wait()

	// End-of-input drain of the reorder window. The executor has
	// exited, so the engine goroutine is the sole writer again.
	if ctx.Reorder != nil {
		if err := ctx.Reorder.Flush(); err != nil {
			return Stats{}, err
		}
	}

	return Stats{
		Records:  exec.NextSeq(),
		Warnings: ctx.Warnings(),
		Elapsed:  time.Since(start),
	}, nil
}
