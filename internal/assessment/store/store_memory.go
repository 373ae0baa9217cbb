// Package store persists decision records. The memory implementation backs
// tests and single-node runs; postgres backs distributed deployments where
// the human-review wait spans processes.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"caregate/internal/domain"
	"caregate/pkg/platform/sentinel"
)

// InMemoryStore keeps decision records keyed by id. Records are deep-copied
// on the way in and out so no mutable state is shared across requests.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*domain.DecisionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[uuid.UUID]*domain.DecisionRecord)}
}

func (s *InMemoryStore) Create(_ context.Context, rec *domain.DecisionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[rec.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*domain.DecisionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return rec.Clone(), nil
}

// Update replaces the stored record iff its current state equals expect.
// The state check is the single-winner rule for simultaneous review
// submissions.
func (s *InMemoryStore) Update(_ context.Context, rec *domain.DecisionRecord, expect domain.DecisionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[rec.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.State != expect {
		return sentinel.ErrInvalidState
	}
	s.records[rec.ID] = rec.Clone()
	return nil
}
