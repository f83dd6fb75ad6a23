// Package extractor implements the worker pool between the splitter
// and the in-order executor.
//
// Each worker loops: pop one job from the work queue, parse its text
// into an XML tree, scan the action pipeline for the first matching
// predicate, and run that action. Every action must submit exactly one
// ordered task; the pool enforces the invariant with a consuming
// submit handle. Workers are symmetric and share no parse state — the
// work queue is the only coordination point.
package extractor

import (
	"fmt"
	"time"

	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/actions"
	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/job"
	"github.com/dmlogsplit/dmlogsplit/internal/logging"
	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
	"github.com/dmlogsplit/dmlogsplit/internal/runctl"
	"github.com/dmlogsplit/dmlogsplit/internal/workqueue"
)

// Pool runs n identical extractor workers.
type Pool struct {
	queue    *workqueue.Queue
	exec     actions.Submitter
	pipeline actions.Pipeline
	ctl      *runctl.Controller
	n        int
}

// New returns a pool of n workers consuming queue and submitting to
// exec.
func New(n int, queue *workqueue.Queue, exec actions.Submitter, pipeline actions.Pipeline, ctl *runctl.Controller) *Pool {
	return &Pool{queue: queue, exec: exec, pipeline: pipeline, ctl: ctl, n: n}
}

// Start spawns the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.n; i++ {
		go p.worker(i)
	}
}

func (p *Pool) worker(id int) {
	log := logging.WorkerLogger(id)

	for {
		j, res, last := p.queue.Pop()
		switch res {
		case workqueue.PopCancelled:
			return
		case workqueue.PopDrained:
			if last {
				log.Debug("last extractor out, queue drained")
				if err := p.ctl.ExtractorsFinished(); err != nil {
					p.ctl.Fail(err)
				}
			}
			return
		}

		if err := p.process(&j); err != nil {
			p.ctl.Fail(err)
			return
		}
	}
}

// process parses one job and dispatches it through the pipeline.
func (p *Pool) process(j *job.Job) error {
	start := time.Now()

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(j.Text); err != nil {
		return errs.NewParseError(
			fmt.Sprintf("malformed record in %q at line %d-%d",
				j.SourceName, j.StartLine, j.EndLine), err)
	}
	tree := doc.Root()
	if tree == nil {
		return errs.NewParseError(
			fmt.Sprintf("empty record in %q at line %d-%d",
				j.SourceName, j.StartLine, j.EndLine), nil)
	}

	handle := &submitHandle{inner: p.exec, want: j.Seq}
	matched := false
	for i := range p.pipeline {
		ca := &p.pipeline[i]
		if !ca.Matches(tree, j) {
			continue
		}
		matched = true
		if err := ca.Action(tree, j, handle); err != nil {
			return err
		}
		break
	}

	if !matched {
		return errs.NewProgramBug(
			"all predicate functions in the action list yielded false; " +
				"the last predicate MUST yield true")
	}
	if err := handle.check(); err != nil {
		return err
	}

	if m := metrics.Get(); m != nil {
		m.JobsExtracted.Inc()
		m.ExtractDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

// submitHandle enforces the one-ordered-task-per-job contract: it is
// consumed by the first submission and remembers any misuse for the
// post-action check.
type submitHandle struct {
	inner actions.Submitter
	want  uint64

	submitted int
	badSeq    *uint64
}

func (h *submitHandle) Submit(seq uint64, run func() error) {
	h.submitted++
	if seq != h.want && h.badSeq == nil {
		s := seq
		h.badSeq = &s
	}
	if h.submitted > 1 {
		// Swallow the extra task; check() reports the bug. Forwarding
		// it would corrupt the executor's sequence accounting.
		return
	}
	h.inner.Submit(seq, run)
}

func (h *submitHandle) check() error {
	if h.badSeq != nil {
		return errs.NewProgramBug(
			"action submitted seq %d for job %d", *h.badSeq, h.want)
	}
	switch h.submitted {
	case 1:
		return nil
	case 0:
		return errs.NewProgramBug(
			"action submitted no ordered task for job %d", h.want)
	default:
		return errs.NewProgramBug(
			"action submitted %d ordered tasks for job %d", h.submitted, h.want)
	}
}
