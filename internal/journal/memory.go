package journal

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"tidy-go/internal/organizer"
)

// MemoryJournal keeps runs and operations in process memory. It exists for
// tests and throwaway dry-run setups; nothing survives a restart.
type MemoryJournal struct {
	mu   sync.Mutex
	runs []organizer.Run
	ops  []organizer.Operation
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

func (j *MemoryJournal) BeginRun(run organizer.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, run)
	return nil
}

func (j *MemoryJournal) FinishRun(runID string, status string, counts organizer.RunCounts) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.runs {
		if j.runs[i].ID == runID {
			j.runs[i].Status = status
			j.runs[i].FinishedAt = time.Now().UTC()
			j.runs[i].Counts = counts
			return nil
		}
	}
	return fmt.Errorf("run %s not found", runID)
}

func (j *MemoryJournal) Append(op organizer.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops = append(j.ops, op)
	return nil
}

func (j *MemoryJournal) OperationsForRun(runID string) ([]organizer.Operation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []organizer.Operation
	for _, op := range j.ops {
		if op.RunID == runID {
			out = append(out, op)
		}
	}
	return out, nil
}

func (j *MemoryJournal) Operations() ([]organizer.Operation, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]organizer.Operation, len(j.ops))
	copy(out, j.ops)
	return out, nil
}

func (j *MemoryJournal) MarkReversed(opID string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.ops {
		if j.ops[i].ID == opID && j.ops[i].Status == organizer.StatusDone {
			j.ops[i].Status = organizer.StatusReversed
			return nil
		}
	}
	return fmt.Errorf("operation %s not found or not in DONE state", opID)
}

func (j *MemoryJournal) Runs(limit int) ([]organizer.Run, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]organizer.Run, len(j.runs))
	copy(out, j.runs)
	sort.SliceStable(out, func(i, k int) bool {
		return out[i].StartedAt.After(out[k].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// SnapshotTo is not meaningful for a volatile journal.
func (j *MemoryJournal) SnapshotTo(destPath string) error {
	return fmt.Errorf("in-memory journal cannot snapshot to %s", destPath)
}

func (j *MemoryJournal) Close() error { return nil }

// Compile-time check that MemoryJournal implements the Journal interface
var _ organizer.Journal = (*MemoryJournal)(nil)
