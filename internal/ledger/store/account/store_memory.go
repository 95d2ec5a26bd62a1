package account

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"launder/internal/ledger/models"
	"launder/pkg/platform/sentinel"
)

// InMemoryStore keeps accounts in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	byID   map[uuid.UUID]*models.Account
	byName map[string]uuid.UUID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		byID:   make(map[uuid.UUID]*models.Account),
		byName: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) GetOrCreate(_ context.Context, account *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.byName[account.Name]; ok {
		existing := *s.byID[id]
		return &existing, nil
	}
	stored := *account
	s.byID[stored.ID] = &stored
	s.byName[stored.Name] = stored.ID
	out := stored
	return &out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[name]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *s.byID[id]
	return &out, nil
}

func (s *InMemoryStore) Transfer(_ context.Context, from, to string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, err := s.lookupLocked(from)
	if err != nil {
		return err
	}
	dst, err := s.lookupLocked(to)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return fmt.Errorf("debit %s: %w", from, sentinel.ErrInsufficientFunds)
	}
	src.Balance -= amount
	dst.Balance += amount
	return nil
}

func (s *InMemoryStore) Credit(_ context.Context, name string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, err := s.lookupLocked(name)
	if err != nil {
		return err
	}
	a.Balance += amount
	return nil
}

func (s *InMemoryStore) lookupLocked(name string) (*models.Account, error) {
	id, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", name, sentinel.ErrNotFound)
	}
	return s.byID[id], nil
}
