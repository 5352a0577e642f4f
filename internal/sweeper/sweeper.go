// Package sweeper periodically reverts tickets stuck mid-transition, the
// safety net for generation or export goroutines that never reported back.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// StaleReverter abstracts the ticket machine's stale sweep.
type StaleReverter interface {
	RevertStale(olderThan time.Duration) (int, error)
}

// Sweeper runs the stale sweep on a cron schedule.
type Sweeper struct {
	cron   *cron.Cron
	target StaleReverter
	maxAge time.Duration
}

// New creates a Sweeper. schedule is a standard 5-field cron expression or
// a predefined schedule like "@every 1m"; maxAge is how long a ticket may
// sit in generating or exporting before it is reverted.
func New(target StaleReverter, schedule string, maxAge time.Duration) (*Sweeper, error) {
	if target == nil {
		return nil, fmt.Errorf("sweeper: target is required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("sweeper: max age must be positive")
	}
	s := &Sweeper{cron: cron.New(), target: target, maxAge: maxAge}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("sweeper: invalid schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Start begins the schedule and blocks until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	s.cron.Stop()
	return ctx.Err()
}

func (s *Sweeper) sweep() {
	n, err := s.target.RevertStale(s.maxAge)
	if err != nil {
		log.Printf("sweeper: %v", err)
		return
	}
	if n > 0 {
		log.Printf("sweeper: reverted %d stale ticket(s)", n)
	}
}
