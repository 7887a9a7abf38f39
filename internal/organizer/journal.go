package organizer

import "errors"

// ErrJournalWrite marks a journal append failure. It is fatal for the run:
// without a durable record the filesystem and journal can diverge, so the
// executor aborts remaining operations when it sees this.
var ErrJournalWrite = errors.New("journal write failed")

// Journal is the durable, append-only record of executed operations.
// Entries are never deleted; they are only appended or marked reversed, so
// history is always reconstructable. Implementations must serialize appends
// through a single writer.
type Journal interface {
	// BeginRun records the start of a run.
	BeginRun(run Run) error

	// FinishRun finalizes a run record with its status and counts.
	FinishRun(runID string, status string, counts RunCounts) error

	// Append durably records one completed operation. It must persist before
	// returning so that a crash mid-run leaves the journal consistent with
	// the filesystem up to the crash point.
	Append(op Operation) error

	// OperationsForRun returns the operations recorded for one run, in append
	// order.
	OperationsForRun(runID string) ([]Operation, error)

	// Operations returns all recorded operations across runs, in append order.
	Operations() ([]Operation, error)

	// MarkReversed transitions a DONE operation to REVERSED.
	MarkReversed(opID string) error

	// Runs returns the most recent runs, newest first.
	Runs(limit int) ([]Run, error)

	// SnapshotTo writes a complete copy of the journal to destPath, for
	// mirroring.
	SnapshotTo(destPath string) error

	Close() error
}
