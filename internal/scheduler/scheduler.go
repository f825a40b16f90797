// Package scheduler runs the incremental updater on a fixed interval.
// It wraps a cron runner with explicit stopped/running state, a
// configured reference timezone for display, and panic/error isolation
// so a bad cycle never kills the recurring job.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vietmass/churchfinder/internal/logger"
)

// DefaultInterval is how often the updater runs when not configured.
const DefaultInterval = time.Hour

// UpdateFunc runs one update cycle and returns the count added.
type UpdateFunc func(ctx context.Context) (int, error)

// Scheduler owns the recurring update job.
type Scheduler struct {
	update   UpdateFunc
	interval time.Duration
	loc      *time.Location

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
}

// New creates a stopped Scheduler. loc is the reference timezone used
// when reporting the next run time.
func New(update UpdateFunc, interval time.Duration, loc *time.Location) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		update:   update,
		interval: interval,
		loc:      loc,
	}
}

// Start registers the recurring job, triggers one update synchronously,
// and transitions to running. Starting a running scheduler is a no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.cron = cron.New(cron.WithLocation(s.loc))
	s.entryID = s.cron.Schedule(cron.Every(s.interval), cron.FuncJob(s.runUpdate))
	s.cron.Start()
	s.running = true
	s.mu.Unlock()

	logger.Info("scheduler started", logger.Fields{"interval": s.interval.String()})
	s.runUpdate()
}

// Stop cancels the recurring job and transitions to stopped.
// Idempotent: stopping a stopped scheduler is a no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	logger.Info("scheduler stopped", nil)
}

// Running reports whether the scheduler is in the running state.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled invocation in the reference
// timezone. ok is false when the scheduler is stopped.
func (s *Scheduler) NextRun() (next time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return time.Time{}, false
	}
	return s.cron.Entry(s.entryID).Next.In(s.loc), true
}

// runUpdate invokes one update cycle. Errors and panics are caught and
// logged here; they must never terminate the recurring job.
func (s *Scheduler) runUpdate() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update panicked", logger.Fields{"panic": fmt.Sprint(r)}, nil)
		}
	}()

	start := time.Now()
	added, err := s.update(context.Background())
	if err != nil {
		logger.Error("scheduled update failed", nil, err)
		return
	}
	logger.Info("scheduled update finished", logger.Fields{
		"added": added,
		"took":  time.Since(start).String(),
	})
}
