package memory

import (
	"context"
	"sync"
	"time"

	audit "activityboard/pkg/platform/audit"
)

// InMemoryStore keeps published events in memory. Used by tests and local
// runs that want to inspect the audit trail.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Publish(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event.Normalize(time.Now()))
	return nil
}

// ListAll returns a copy of every event in publish order.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events...), nil
}

// ListByActivity returns events for one activity in publish order.
func (s *InMemoryStore) ListByActivity(_ context.Context, activity string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Activity == activity {
			out = append(out, e)
		}
	}
	return out, nil
}
