// Package actions defines the per-packet work: an ordered list of
// (predicate, action) pairs scanned first-match-wins by each extractor
// worker.
//
// An action MUST submit exactly one ordered task per job, even when it
// has nothing to print (a no-op closure stands in). The closures run
// on the in-order executor's single goroutine, which is the only place
// allowed to touch the output sink and the cross-packet Context state.
package actions

import (
	"github.com/beevik/etree"

	"github.com/dmlogsplit/dmlogsplit/internal/job"
)

// Submitter delivers an ordered task to the in-order executor.
type Submitter interface {
	Submit(seq uint64, run func() error)
}

// Predicate decides whether an action applies to a parsed packet.
// A nil Predicate in a ConditionalAction is a tautology.
type Predicate func(tree *etree.Element, j *job.Job) bool

// Action performs the per-packet work and submits exactly one ordered
// task. A non-nil error is fatal and cancels the run.
type Action func(tree *etree.Element, j *job.Job, sub Submitter) error

// ConditionalAction pairs a predicate with its action.
type ConditionalAction struct {
	Predicate Predicate
	Action    Action
}

// Matches reports whether the pair applies to the packet.
func (ca *ConditionalAction) Matches(tree *etree.Element, j *job.Job) bool {
	return ca.Predicate == nil || ca.Predicate(tree, j)
}

// Pipeline is the configured ordered action list for one run mode.
type Pipeline []ConditionalAction

// submitNop stands in when an action has nothing to emit.
func submitNop(j *job.Job, sub Submitter) {
	sub.Submit(j.Seq, func() error { return nil })
}

// nopTail is the always-true, no-op pair appended to extract-mode
// pipelines so every job still yields its ordered task.
func nopTail() ConditionalAction {
	return ConditionalAction{
		Action: func(_ *etree.Element, j *job.Job, sub Submitter) error {
			submitNop(j, sub)
			return nil
		},
	}
}
