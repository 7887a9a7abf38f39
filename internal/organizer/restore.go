package organizer

import (
	"context"
	"fmt"
)

// Restore replays journaled moves in reverse chronological order, returning
// each file from its recorded destination back to its recorded source. When
// runID is empty, every run is restored. Entries already reversed are
// skipped; entries whose original path is now occupied by another file are
// skipped with a warning and left un-reversed. A partial restore is a valid
// terminal outcome.
func (s *Service) Restore(ctx context.Context, runID string, dryRun bool) (*Result, error) {
	var (
		ops []Operation
		err error
	)
	if runID == "" {
		ops, err = s.journal.Operations()
	} else {
		ops, err = s.journal.OperationsForRun(runID)
	}
	if err != nil {
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	restoreID := s.idgen.New()
	result := &Result{RunID: restoreID, DryRun: dryRun}

	// Journal order is append order; walk it backwards so later moves are
	// undone before earlier ones.
	var candidates []Operation
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		if op.Kind != KindMove || op.Status != StatusDone {
			continue
		}
		candidates = append(candidates, op)
		result.Planned = append(result.Planned, op)
	}

	if dryRun {
		for _, op := range candidates {
			if reason := s.restoreBlocked(op); reason != "" {
				result.Skipped = append(result.Skipped, op)
				continue
			}
			result.Completed = append(result.Completed, op)
		}
		return result, nil
	}

	run := Run{ID: restoreID, Mode: "restore", Status: "success", StartedAt: s.clock.Now()}
	if err := s.journal.BeginRun(run); err != nil {
		return nil, fmt.Errorf("%w: recording restore start: %v", ErrJournalWrite, err)
	}

	var fatal error
	for _, op := range candidates {
		if err := ctx.Err(); err != nil {
			fatal = fmt.Errorf("restore cancelled: %w", err)
			break
		}

		if reason := s.restoreBlocked(op); reason != "" {
			s.logger.Warn("restore skipped", "source", op.Source, "reason", reason)
			result.Skipped = append(result.Skipped, op)
			continue
		}

		if err := s.fsmgr.Move(op.Destination, op.Source); err != nil {
			s.logger.Error("restore failed", "destination", op.Destination, "error", err)
			result.Failed = append(result.Failed, OpFailure{Op: op, Err: err.Error()})
			continue
		}

		if err := s.journal.MarkReversed(op.ID); err != nil {
			fatal = fmt.Errorf("%w: marking operation reversed: %v", ErrJournalWrite, err)
			result.Failed = append(result.Failed, OpFailure{Op: op, Err: fatal.Error()})
			break
		}
		result.Completed = append(result.Completed, op)
		s.logger.Info("file restored", "path", op.Source)
	}

	status := "success"
	switch {
	case fatal != nil:
		status = "aborted"
	case len(result.Failed) > 0 || len(result.Skipped) > 0:
		status = "partial"
	}
	if err := s.journal.FinishRun(restoreID, status, result.Counts()); err != nil && fatal == nil {
		fatal = fmt.Errorf("%w: finalizing restore: %v", ErrJournalWrite, err)
	}

	return result, fatal
}

// restoreBlocked reports why an entry cannot be reversed right now, or ""
// when it can.
func (s *Service) restoreBlocked(op Operation) string {
	if !s.fsmgr.Exists(op.Destination) {
		return "file missing from recorded destination"
	}
	if s.fsmgr.Exists(op.Source) {
		// Never overwrite whatever now occupies the original path.
		return "original path occupied"
	}
	return ""
}
