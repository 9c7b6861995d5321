package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type countingRefresher struct {
	mu        sync.Mutex
	calls     int
	failFirst bool
}

func (r *countingRefresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.failFirst && r.calls == 1 {
		return errors.New("feed down")
	}
	return nil
}

func (r *countingRefresher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSchedulerRetriesSoonerAfterFailure(t *testing.T) {
	r := &countingRefresher{failFirst: true}
	s := New(r, time.Hour, 20*time.Millisecond)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	// The immediate first run fails; the retry is due after the short
	// interval, the run after that only in an hour.
	deadline := time.Now().Add(2 * time.Second)
	for r.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := r.count(); got != 2 {
		t.Fatalf("refresh ran %d times, want 2", got)
	}
}

func TestSchedulerReschedulesAfterSuccess(t *testing.T) {
	r := &countingRefresher{}
	s := New(r, 20*time.Millisecond, time.Hour)

	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for r.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := r.count(); got < 3 {
		t.Fatalf("refresh ran %d times, want at least 3", got)
	}
}
