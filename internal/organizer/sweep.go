package organizer

import "fmt"

// Sweep removes directories left empty after moves, journaling each removal
// so run history stays complete. The sweeper itself reads the live
// filesystem, processing children before parents.
func (s *Service) Sweep(roots []string, dryRun bool) (*Result, error) {
	runID := s.idgen.New()
	result := &Result{RunID: runID, DryRun: dryRun}

	removed, err := s.sweeper.Sweep(roots, dryRun)
	if err != nil {
		return nil, fmt.Errorf("sweeping: %w", err)
	}

	for i, dir := range removed {
		op := Operation{
			RunID:  runID,
			Seq:    i,
			Kind:   KindDeleteEmptyDir,
			Source: dir,
			Status: StatusPlanned,
		}
		result.Planned = append(result.Planned, op)
		if !dryRun {
			result.Completed = append(result.Completed, op)
		}
	}

	if dryRun {
		return result, nil
	}

	run := Run{ID: runID, Mode: "sweep", Status: "success", StartedAt: s.clock.Now()}
	if err := s.journal.BeginRun(run); err != nil {
		return nil, fmt.Errorf("%w: recording sweep start: %v", ErrJournalWrite, err)
	}
	for i := range result.Completed {
		op := &result.Completed[i]
		op.ID = s.idgen.New()
		op.Status = StatusDone
		op.CreatedAt = s.clock.Now()
		if err := s.journal.Append(*op); err != nil {
			return result, fmt.Errorf("%w: %v", ErrJournalWrite, err)
		}
	}
	if err := s.journal.FinishRun(runID, "success", result.Counts()); err != nil {
		return result, fmt.Errorf("%w: finalizing sweep: %v", ErrJournalWrite, err)
	}

	s.logger.Info("sweep finished", "run", runID, "removed", len(removed))
	return result, nil
}
