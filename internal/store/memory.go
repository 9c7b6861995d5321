package store

import (
	"errors"
	"sync"
	"time"

	"github.com/pegah-mashcool/buienradar-bridge/internal/buienradar"
)

var (
	// ErrNotFound is returned when no snapshot data is available.
	ErrNotFound = errors.New("no snapshot data available")
)

// MemoryStore is a concurrency-safe in-memory history of measurement
// snapshots with count and age based retention.
type MemoryStore struct {
	mu sync.RWMutex

	snapshots []buienradar.Snapshot

	maxHistory int           // max number of retained snapshots
	maxAge     time.Duration // optional max age for snapshots
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveSnapshot appends a new snapshot and enforces retention.
func (s *MemoryStore) SaveSnapshot(snapshot buienradar.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = append(s.snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.snapshots) > s.maxHistory {
		over := len(s.snapshots) - s.maxHistory
		s.snapshots = s.snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.snapshots); i++ {
			if !s.snapshots[i].Measured.Before(cutoff) {
				break
			}
		}
		if i > 0 && i < len(s.snapshots) {
			s.snapshots = s.snapshots[i:]
		}
	}
}

// GetLatest returns the most recent snapshot.
func (s *MemoryStore) GetLatest() (buienradar.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return buienradar.Snapshot{}, ErrNotFound
	}
	return s.snapshots[len(s.snapshots)-1], nil
}

// GetRange returns all snapshots measured between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]buienradar.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []buienradar.Snapshot
	for _, snap := range s.snapshots {
		if !snap.Measured.Before(from) && !snap.Measured.After(to) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}
