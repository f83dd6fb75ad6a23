// Package job defines the unit of work that flows from the Splitter
// through the Extractor Pool to the In-Order Executor.
package job

// Job is one parsed-unit of work: a single top-level record plus the
// annotations the Splitter attached to it. A Job is created by the
// Splitter, consumed exactly once by an Extractor, and discarded once
// the Extractor has produced its OrderedTask.
type Job struct {
	// Seq is dense, starts at 0, and is contiguous and monotonic
	// across the entire run regardless of how many input files were
	// concatenated.
	Seq uint64

	// Text holds exactly one top-level record, e.g.
	// "<dm_log_packet>...</dm_log_packet>", including any leading
	// angle bracket and trailing closing angle bracket.
	Text []byte

	// SourceName is the input file name this record came from, or
	// "stdin" when reading standard input.
	SourceName string

	// StartLine and EndLine are 1-based line numbers: the line of the
	// record's opening '<' and the line of its terminating '>'.
	StartLine uint64
	EndLine   uint64
}

// OrderedTask is a deferred side effect keyed by Seq. Produced exactly
// once per Job by an Extractor, consumed exactly once by the Executor.
// A non-nil error from Run is fatal and cancels the run.
type OrderedTask struct {
	Seq uint64
	Run func() error
}
