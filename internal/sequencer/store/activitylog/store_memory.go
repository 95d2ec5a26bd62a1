package activitylog

import (
	"context"
	"encoding/json"
	"sync"

	"launder/internal/sequencer/models"
)

// InMemoryStore keeps a deep copy of the last saved log.
type InMemoryStore struct {
	mu    sync.Mutex
	raw   []byte
	saves int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Load(_ context.Context) (*models.ActivityLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := models.NewActivityLog()
	if s.raw == nil {
		return log, nil
	}
	if err := json.Unmarshal(s.raw, log); err != nil {
		return nil, err
	}
	log.Repair()
	return log, nil
}

func (s *InMemoryStore) Save(_ context.Context, log *models.ActivityLog) error {
	raw, err := json.Marshal(log)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw = raw
	s.saves++
	return nil
}

// Saves counts successful saves.
func (s *InMemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
