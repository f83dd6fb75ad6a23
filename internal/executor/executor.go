// Package executor implements the in-order executor.
//
// Extractors act as producers: each submits exactly one task per job,
// keyed by the job's sequence number. Tasks arriving out of order are
// buffered in a min-heap and run in strictly ascending, contiguous
// sequence order on the executor's single goroutine. Because exactly
// one goroutine runs the task closures, everything they touch — the
// output sink and the cross-packet action state — is race-free without
// further locking.
//
// The producers MUST guarantee that the submitted sequence numbers are
// dense: every number from zero up to the total job count appears
// exactly once.
package executor

import (
	"container/heap"
	"sync"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/job"
	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
	"github.com/dmlogsplit/dmlogsplit/internal/runctl"
)

// taskHeap is a min-heap of ordered tasks by sequence number.
type taskHeap []job.OrderedTask

func (h taskHeap) Len() int           { return len(h) }
func (h taskHeap) Less(i, j int) bool { return h[i].Seq < h[j].Seq }
func (h taskHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *taskHeap) Push(x any)        { *h = append(*h, x.(job.OrderedTask)) }
func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	*h = old[:n-1]
	return t
}

// Executor owns the pending heap and the next expected sequence
// number.
type Executor struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond

	pending taskHeap
	nextSeq uint64

	noMoreTasks bool
	cancelled   bool

	ctl *runctl.Controller
}

// New returns an Executor reporting to ctl.
func New(ctl *runctl.Controller) *Executor {
	e := &Executor{ctl: ctl}
	e.nonEmpty = sync.NewCond(&e.mu)
	return e
}

// Submit hands a task to the executor. Safe to call from any extractor
// goroutine.
func (e *Executor) Submit(seq uint64, run func() error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq == e.nextSeq {
		e.nonEmpty.Signal()
	}
	heap.Push(&e.pending, job.OrderedTask{Seq: seq, Run: run})
	if m := metrics.Get(); m != nil {
		m.PendingHeapSize.Set(float64(len(e.pending)))
	}
}

// NoMoreTasks tells the executor that every extractor has exited and
// no further Submit calls will arrive.
func (e *Executor) NoMoreTasks() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.noMoreTasks = true
	e.nonEmpty.Signal()
}

// Cancel makes the executor exit without draining. Wakes the run loop
// if it is waiting.
func (e *Executor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelled = true
	e.nonEmpty.Signal()
}

// Run is the executor goroutine body. It exits on cancellation, or
// after the heap drains once NoMoreTasks has been signalled, in which
// case it reports ExecutorFinished to the controller.
func (e *Executor) Run() {
	e.mu.Lock()
	for {
		for !e.cancelled && !e.noMoreTasks &&
			(len(e.pending) == 0 || e.pending[0].Seq != e.nextSeq) {
			e.nonEmpty.Wait()
		}

		if e.cancelled {
			e.mu.Unlock()
			return
		}

		if e.noMoreTasks {
			if len(e.pending) == 0 {
				e.mu.Unlock()
				if err := e.ctl.ExecutorFinished(); err != nil {
					e.ctl.Fail(err)
				}
				return
			}
			if e.pending[0].Seq != e.nextSeq {
				e.mu.Unlock()
				e.ctl.Fail(errs.NewProgramBug(
					"all extractors have finished but the executor still holds "+
						"pending tasks that are out of order: have seq %d, want %d",
					e.pending[0].Seq, e.nextSeq))
				return
			}
		}

		// Run the contiguous prefix.
		for len(e.pending) > 0 && e.pending[0].Seq == e.nextSeq {
			t := heap.Pop(&e.pending).(job.OrderedTask)
			e.mu.Unlock()

			if err := runTask(t.Run); err != nil {
				e.ctl.Fail(err)
				return
			}
			if m := metrics.Get(); m != nil {
				m.JobsExecuted.Inc()
			}

			e.mu.Lock()
			e.nextSeq++
			if m := metrics.Get(); m != nil {
				m.PendingHeapSize.Set(float64(len(e.pending)))
			}
		}
	}
}

// NextSeq returns the next expected sequence number. For tests and
// the final run summary.
func (e *Executor) NextSeq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.nextSeq
}

// runTask runs one closure, converting a panic into an error so a
// failing task cancels the run instead of crashing the process.
func runTask(run func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = errs.NewProgramBug("ordered task panicked: %v", r)
		}
	}()
	return run()
}
