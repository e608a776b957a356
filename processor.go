package binseq

import "time"

// Processor is the capability a caller-supplied type must satisfy to be
// driven by ProcessParallel. The dispatcher obtains one fresh
// Processor per worker from a factory function — workers never share
// Processor state — calls Process once per record in file order within
// that worker's partition, and calls Finalize once after the partition is
// exhausted.
type Processor interface {
	// Process handles one record. Returning a non-nil error aborts this
	// worker's partition and is surfaced (wrapped in ProcessorError) from
	// ProcessParallel; the dispatcher then raises the cooperative
	// cancellation flag for the remaining workers.
	Process(rec RecordView) error

	// Finalize is called exactly once, after this worker's partition is
	// exhausted (whether or not Process ever returned an error), and its
	// result is collected into Stats.Summaries.
	Finalize() any
}

// Stats summarizes one ProcessParallel run.
type Stats struct {
	// RecordsProcessed counts records for which Process was called and
	// returned nil, across all workers.
	RecordsProcessed uint64

	// Elapsed is the wall-clock duration of the whole dispatch call, from
	// before the first worker starts to after the last one returns.
	Elapsed time.Duration

	// Summaries holds each worker's Finalize() result, in no particular
	// order, since workers complete independently.
	Summaries []any
}
