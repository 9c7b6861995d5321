// Package bridge orchestrates the fetch/store/dispatch cycle: pull a fresh
// measurement snapshot from the feed, persist it, and fan it out to the
// sensor entities.
package bridge

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pegah-mashcool/buienradar-bridge/internal/buienradar"
)

// Fetcher produces a fresh measurement snapshot.
type Fetcher interface {
	Fetch(ctx context.Context) (*buienradar.Snapshot, error)
}

// Store is the contract the in-memory store (and any future persistent
// store) must satisfy.
type Store interface {
	SaveSnapshot(snapshot buienradar.Snapshot)
	GetLatest() (buienradar.Snapshot, error)
	GetRange(from, to time.Time) ([]buienradar.Snapshot, error)
}

// Subscriber is notified with every fresh snapshot. Notification must not
// fail; stale or partial snapshots are the subscriber's business.
type Subscriber interface {
	DataUpdated(ctx context.Context, snapshot *buienradar.Snapshot)
}

// Service coordinates the fetcher, the store, and the subscribers.
type Service struct {
	fetcher     Fetcher
	store       Store
	subscribers []Subscriber
}

// NewService creates a new Service.
func NewService(fetcher Fetcher, store Store, subscribers []Subscriber) *Service {
	return &Service{
		fetcher:     fetcher,
		store:       store,
		subscribers: subscribers,
	}
}

// Refresh fetches a fresh snapshot, stores it, and dispatches it to all
// subscribers. On fetch failure the last good snapshot is kept and the error
// is returned so the scheduler can shorten the retry interval.
func (s *Service) Refresh(ctx context.Context) error {
	snapshot, err := s.fetcher.Fetch(ctx)
	if err != nil {
		log.Printf("bridge: fetch failed, keeping last good snapshot: %v", err)
		return fmt.Errorf("refresh: %w", err)
	}

	s.store.SaveSnapshot(*snapshot)

	for _, sub := range s.subscribers {
		sub.DataUpdated(ctx, snapshot)
	}
	return nil
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest() (buienradar.Snapshot, error) {
	return s.store.GetLatest()
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(from, to time.Time) ([]buienradar.Snapshot, error) {
	return s.store.GetRange(from, to)
}
