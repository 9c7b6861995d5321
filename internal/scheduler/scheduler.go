package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Refresher runs one fetch/dispatch cycle.
type Refresher interface {
	Refresh(ctx context.Context) error
}

const refreshTag = "refresh"

// Scheduler periodically refreshes the measurement snapshot. Each run
// schedules the next one directly: after okInterval on success, after the
// shorter nokInterval on failure.
type Scheduler struct {
	scheduler   *gocron.Scheduler
	refresher   Refresher
	okInterval  time.Duration
	nokInterval time.Duration
}

// New creates a new Scheduler.
func New(refresher Refresher, okInterval, nokInterval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:   gocron.NewScheduler(time.UTC),
		refresher:   refresher,
		okInterval:  okInterval,
		nokInterval: nokInterval,
	}
}

// Start begins the refresh loop with an immediate first run.
func (s *Scheduler) Start() error {
	if err := s.scheduleNext(0); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// scheduleNext arms a one-shot job after the given delay, replacing any
// previously armed one.
func (s *Scheduler) scheduleNext(delay time.Duration) error {
	if delay <= 0 {
		delay = time.Millisecond
	}
	_ = s.scheduler.RemoveByTag(refreshTag)

	_, err := s.scheduler.Every(delay).
		StartAt(time.Now().Add(delay)).
		LimitRunsTo(1).
		Tag(refreshTag).
		Do(s.run)
	return err
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	next := s.okInterval
	if err := s.refresher.Refresh(ctx); err != nil {
		log.Printf("scheduler: refresh failed, retrying in %s: %v", s.nokInterval, err)
		next = s.nokInterval
	} else {
		log.Printf("scheduler: refresh completed, next run in %s", s.okInterval)
	}

	if err := s.scheduleNext(next); err != nil {
		log.Printf("scheduler: scheduling next refresh failed: %v", err)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
