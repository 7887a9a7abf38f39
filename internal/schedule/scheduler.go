// Package schedule runs periodic dry-run previews so the user can watch what
// an organizing pass would do before committing to one.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"tidy-go/internal/organizer"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context) error

// Scheduler triggers a job on a cron expression. Overlapping firings are
// collapsed: a firing is skipped while the previous one is still running.
type Scheduler struct {
	schedule cron.Schedule
	job      Job
	logger   organizer.Logger

	mu       sync.Mutex
	running  bool
	active   bool
	stopChan chan struct{}
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// Parser accepts standard five-field cron expressions.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// New creates a Scheduler for the given cron expression.
func New(expression string, job Job, logger organizer.Logger) (*Scheduler, error) {
	schedule, err := parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expression, err)
	}
	return &Scheduler{schedule: schedule, job: job, logger: logger}, nil
}

// Start begins firing the job. It is a no-op when already started.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopChan = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	go s.run(ctx)
}

// Stop halts the schedule, cancels an in-flight job, and waits for it to
// return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		next := s.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))

		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.fire(ctx)
		}
	}
}

func (s *Scheduler) fire(ctx context.Context) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		s.logger.Warn("previous scheduled run still in progress, skipping")
		return
	}
	s.active = true
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.active = false
			s.mu.Unlock()
			s.wg.Done()
		}()

		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled run failed", "error", err)
		}
	}()
}

// NextAfter reports when the schedule fires next after t.
func (s *Scheduler) NextAfter(t time.Time) time.Time {
	return s.schedule.Next(t)
}
