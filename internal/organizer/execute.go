package organizer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Execute performs the plan's operations in order. In dry-run mode no
// filesystem mutation occurs and nothing is journaled; the Result is still
// fully populated for preview. In live mode each completed operation is
// appended to the journal immediately, so a crash mid-run leaves the journal
// consistent with the filesystem up to the crash point.
//
// Cancellation is honored only between operations; once a move has begun it
// runs to completion so no file is ever left half-moved.
func (s *Service) Execute(ctx context.Context, plan Plan, dryRun bool) (*Result, error) {
	runID := s.idgen.New()
	result := &Result{RunID: runID, DryRun: dryRun}

	for i := range plan {
		op := plan[i]
		op.RunID = runID
		op.Status = StatusPlanned
		result.Planned = append(result.Planned, op)
	}

	if dryRun {
		s.logger.Info("dry run complete", "run", runID, "planned", len(result.Planned))
		return result, nil
	}

	run := Run{
		ID:        runID,
		Mode:      "run",
		Status:    "success",
		StartedAt: s.clock.Now(),
	}
	if err := s.journal.BeginRun(run); err != nil {
		return nil, fmt.Errorf("%w: recording run start: %v", ErrJournalWrite, err)
	}

	var fatal error
	for _, op := range result.Planned {
		if err := ctx.Err(); err != nil {
			fatal = fmt.Errorf("run cancelled: %w", err)
			break
		}

		done, execErr := s.executeOne(op)
		if execErr != nil {
			s.logger.Error("operation failed", "source", op.Source, "error", execErr)
			result.Failed = append(result.Failed, OpFailure{Op: op, Err: execErr.Error()})
			continue
		}

		done.ID = s.idgen.New()
		done.Status = StatusDone
		done.CreatedAt = s.clock.Now()
		if err := s.journal.Append(done); err != nil {
			// Without the journal entry this move could not be reversed, and
			// nothing after it can be promised either. Abort the run.
			fatal = fmt.Errorf("%w: %v", ErrJournalWrite, err)
			result.Failed = append(result.Failed, OpFailure{Op: done, Err: fatal.Error()})
			break
		}
		result.Completed = append(result.Completed, done)
		s.logger.Info("file moved", "source", done.Source, "destination", done.Destination)
	}

	status := "success"
	switch {
	case fatal != nil:
		status = "aborted"
	case len(result.Failed) > 0:
		status = "partial"
	}
	run.FinishedAt = s.clock.Now()
	if err := s.journal.FinishRun(runID, status, result.Counts()); err != nil && fatal == nil {
		fatal = fmt.Errorf("%w: finalizing run: %v", ErrJournalWrite, err)
	}

	s.logger.Info("run finished", "run", runID, "status", status,
		"completed", len(result.Completed), "failed", len(result.Failed))
	return result, fatal
}

// executeOne performs a single move, re-validating the destination against
// external changes. On a late collision the destination is re-disambiguated
// for this operation alone, mirroring the planner's numbering scheme.
func (s *Service) executeOne(op Operation) (Operation, error) {
	if op.Kind != KindMove {
		return op, fmt.Errorf("unexpected operation kind: %s", op.Kind)
	}

	if !s.fsmgr.Exists(op.Source) {
		return op, fmt.Errorf("source no longer exists: %s", op.Source)
	}

	if s.fsmgr.Exists(op.Destination) {
		op.Destination = s.nextFreePath(op.Destination)
		s.logger.Warn("destination taken, renumbered", "destination", op.Destination)
	}

	if err := s.fsmgr.Move(op.Source, op.Destination); err != nil {
		return op, fmt.Errorf("moving file: %w", err)
	}
	return op, nil
}

var stemDisambiguator = regexp.MustCompile(`_(\d+)$`)

// nextFreePath appends an incrementing numeric disambiguator to the filename
// stem until the path is free. A stem that already carries a disambiguator
// (from plan-time renumbering) continues the sequence instead of nesting a
// second suffix, so disk layouts stay uniform with the planner's scheme.
func (s *Service) nextFreePath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	start := 1
	if m := stemDisambiguator.FindStringSubmatch(stem); m != nil {
		if prev, err := strconv.Atoi(m[1]); err == nil {
			stem = strings.TrimSuffix(stem, m[0])
			start = prev + 1
		}
	}

	for n := start; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		if !s.fsmgr.Exists(candidate) {
			return candidate
		}
	}
}
