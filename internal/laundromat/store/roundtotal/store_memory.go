// Package roundtotal holds the state of the current round: the running total
// of laundered clean amounts, the requests cleared so far and the day count.
// Commit is an atomic compare-and-commit: the amount is added only if the new
// total stays within the threshold, and the request is recorded in the same
// step either way.
package roundtotal

import (
	"context"
	"sync"

	"launder/internal/game"
	"launder/internal/laundromat/models"
)

type InMemoryStore struct {
	mu      sync.Mutex
	total   int64
	day     int
	records []models.Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

// Commit adds amount when total+amount <= threshold. A rejected amount
// leaves the total unchanged and is recorded as busted.
func (s *InMemoryStore) Commit(_ context.Context, rec models.Record, amount, threshold int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := game.WithinThreshold(s.total, amount, threshold)
	if accepted {
		s.total += amount
	}
	rec.Busted = !accepted
	s.records = append(s.records, rec)
	return s.total, accepted, nil
}

// Append records a request that does not count toward the total.
func (s *InMemoryStore) Append(_ context.Context, rec models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Close ends the round: the total drops to zero, the recorded requests are
// handed back and the day advances.
func (s *InMemoryStore) Close(_ context.Context) (int, []models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records
	s.records = nil
	s.total = 0
	s.day++
	return s.day, records, nil
}

func (s *InMemoryStore) Total(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, nil
}

// Reset starts a new run from day zero.
func (s *InMemoryStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total = 0
	s.day = 0
	s.records = nil
	return nil
}
