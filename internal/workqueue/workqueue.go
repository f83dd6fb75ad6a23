// Package workqueue implements the bounded, back-pressured FIFO of
// jobs between the splitter and the extractor pool.
//
// Only the splitter enqueues and only extractors dequeue. The queue is
// guarded by one mutex and two condition variables: non-empty wakes
// sleeping consumers, non-full wakes the blocked producer. The
// producer blocks while the queue holds highWater jobs or more and
// resumes once consumers bring it down to lowWater.
package workqueue

import (
	"sync"

	"github.com/dmlogsplit/dmlogsplit/internal/errs"
	"github.com/dmlogsplit/dmlogsplit/internal/job"
	"github.com/dmlogsplit/dmlogsplit/internal/metrics"
)

// Queue is a bounded FIFO of jobs.
type Queue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	nonFull  *sync.Cond

	jobs []job.Job

	highWater int
	lowWater  int

	splitterFinished bool
	cancelled        bool

	// aliveWorkers and runningWorkers track consumer liveness so the
	// producer only signals non-empty when someone is actually asleep.
	aliveWorkers   int
	runningWorkers int
}

// New returns a queue with the given water marks. highWater must be
// greater than lowWater, which must be positive.
func New(highWater, lowWater, workers int) *Queue {
	q := &Queue{
		highWater:      highWater,
		lowWater:       lowWater,
		aliveWorkers:   workers,
		runningWorkers: workers,
	}
	q.nonEmpty = sync.NewCond(&q.mu)
	q.nonFull = sync.NewCond(&q.mu)
	return q
}

// Push adds a job, blocking while the queue is at or above the high
// water mark. It returns false if the queue was cancelled while waiting, and
// a ProgramBug if called after SplitterFinished.
func (q *Queue) Push(j job.Job) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for !q.splitterFinished && !q.cancelled && len(q.jobs) >= q.highWater {
		q.nonFull.Wait()
	}

	if q.cancelled {
		return false, nil
	}
	if q.splitterFinished {
		return false, errs.NewProgramBug(
			"the splitter has been marked finished but is still producing new jobs")
	}

	// Only bother signalling when some consumer is asleep.
	if q.runningWorkers != q.aliveWorkers {
		q.nonEmpty.Signal()
	}

	q.jobs = append(q.jobs, j)
	if m := metrics.Get(); m != nil {
		m.WorkQueueDepth.Set(float64(len(q.jobs)))
	}
	return true, nil
}

// PopResult describes the outcome of a Pop call.
type PopResult int

const (
	// PopJob means a job was dequeued.
	PopJob PopResult = iota
	// PopDrained means the splitter finished and the queue is empty;
	// the calling worker should exit. LastWorker on the return value
	// reports whether it was the last one out.
	PopDrained
	// PopCancelled means the run was cancelled; exit immediately.
	PopCancelled
)

// Pop removes the next job, blocking while the queue is empty and the
// splitter is still producing. When the post-pop size reaches the low
// water mark it wakes the producer.
//
// On PopDrained the worker has been removed from the alive count and
// lastWorker reports whether it was the final one.
func (q *Queue) Pop() (j job.Job, res PopResult, lastWorker bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.jobs) == 0 && !q.splitterFinished && !q.cancelled {
		q.runningWorkers--
		for len(q.jobs) == 0 && !q.splitterFinished && !q.cancelled {
			q.nonEmpty.Wait()
		}
		q.runningWorkers++
	}

	if q.cancelled {
		return job.Job{}, PopCancelled, false
	}

	if len(q.jobs) == 0 {
		// Splitter finished and nothing left: this worker exits.
		q.aliveWorkers--
		q.runningWorkers--
		return job.Job{}, PopDrained, q.aliveWorkers == 0
	}

	j = q.jobs[0]
	q.jobs = q.jobs[1:]
	if m := metrics.Get(); m != nil {
		m.WorkQueueDepth.Set(float64(len(q.jobs)))
	}

	if len(q.jobs) <= q.lowWater {
		q.nonFull.Signal()
	}

	return j, PopJob, false
}

// SplitterFinished marks end of input and wakes every waiting
// consumer so they can drain and exit.
func (q *Queue) SplitterFinished() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.splitterFinished = true
	q.nonEmpty.Broadcast()
}

// Cancel wakes everything; all subsequent Push and Pop calls return
// immediately.
func (q *Queue) Cancel() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelled = true
	q.nonEmpty.Broadcast()
	q.nonFull.Broadcast()
}

// Len returns the current queue depth.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
