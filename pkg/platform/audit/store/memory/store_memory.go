package memory

import (
	"context"
	"sync"

	audit "caregate/pkg/platform/audit"
)

// InMemoryStore keeps one append-only event log per decision id. Used as the
// local sink in tests and single-node deployments without Kafka.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.DecisionID] = append(s.events[event.DecisionID], event)
	return nil
}

func (s *InMemoryStore) ListByDecision(_ context.Context, decisionID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[decisionID]...), nil
}

// ListAll returns all events across decisions, unordered across ids.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []audit.Event
	for _, events := range s.events {
		all = append(all, events...)
	}
	return all, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}
