package organizer

import "time"

// OperationKind identifies the type of filesystem mutation.
type OperationKind string

const (
	KindMove           OperationKind = "MOVE"
	KindDeleteEmptyDir OperationKind = "DELETE_EMPTY_DIR"
)

// OperationStatus tracks the lifecycle of an operation.
type OperationStatus string

const (
	StatusPlanned  OperationStatus = "PLANNED"
	StatusDone     OperationStatus = "DONE"
	StatusFailed   OperationStatus = "FAILED"
	StatusReversed OperationStatus = "REVERSED"
)

// Reason explains why the planner scheduled an operation.
type Reason string

const (
	ReasonDuplicate  Reason = "duplicate"
	ReasonOldVersion Reason = "old-version"
	ReasonCategory   Reason = "category"
	ReasonEmptyDir   Reason = "empty-dir"
)

// Operation is a single planned or executed filesystem mutation. ID and RunID
// are assigned by the executor; the planner produces operations with only
// Seq, Kind, Source, Destination, and Reason populated, which keeps plans a
// pure function of their inputs.
type Operation struct {
	ID          string
	RunID       string
	Seq         int
	Kind        OperationKind
	Source      string
	Destination string // empty for DELETE_EMPTY_DIR
	Reason      Reason
	Status      OperationStatus
	CreatedAt   time.Time
}

// Plan is the ordered operation list produced by the planner for one run.
// Building a plan never mutates filesystem state.
type Plan []Operation

// OpFailure pairs a failed operation with the reason it failed.
type OpFailure struct {
	Op  Operation
	Err string
}

// Result summarizes one execution (or restore) pass. Every run produces a
// Result even when some operations failed.
type Result struct {
	RunID     string
	DryRun    bool
	Planned   []Operation
	Completed []Operation
	Failed    []OpFailure
	Skipped   []Operation
}

// Counts returns the planned/completed/failed/skipped tallies.
func (r *Result) Counts() RunCounts {
	return RunCounts{
		Planned:   len(r.Planned),
		Completed: len(r.Completed),
		Failed:    len(r.Failed),
		Skipped:   len(r.Skipped),
	}
}

// RunCounts is the per-run operation tally persisted with the run record.
type RunCounts struct {
	Planned   int
	Completed int
	Failed    int
	Skipped   int
}

// Run is one journaled invocation of the executor, restorer, or sweeper.
type Run struct {
	ID         string
	Mode       string // "run", "restore", or "sweep"
	Status     string // "success", "partial", or "aborted"
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     RunCounts
}
