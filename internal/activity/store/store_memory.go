package store

import (
	"context"
	"fmt"
	"sync"

	"activityboard/internal/activity/models"
	"activityboard/pkg/platform/sentinel"
)

// InMemory keeps the registry in process memory. State is lost on restart.
type InMemory struct {
	mu         sync.RWMutex
	activities map[string]*models.Activity
	order      []string
}

func NewInMemory() *InMemory {
	return &InMemory{activities: make(map[string]*models.Activity)}
}

func (s *InMemory) List(_ context.Context) ([]*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Activity, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.activities[name].Clone())
	}
	return out, nil
}

func (s *InMemory) FindByName(_ context.Context, name string) (*models.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activities[name]
	if !ok {
		return nil, fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	}
	return a.Clone(), nil
}

func (s *InMemory) AddParticipant(_ context.Context, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[name]
	if !ok {
		return fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	}
	if !a.AddParticipant(email) {
		return fmt.Errorf("participant %q in %q: %w", email, name, sentinel.ErrConflict)
	}
	return nil
}

func (s *InMemory) RemoveParticipant(_ context.Context, name, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.activities[name]
	if !ok {
		return fmt.Errorf("activity %q: %w", name, sentinel.ErrNotFound)
	}
	if !a.RemoveParticipant(email) {
		return fmt.Errorf("participant %q in %q: %w", email, name, sentinel.ErrInvalidState)
	}
	return nil
}

// Seed adds activities whose names are not yet registered.
func (s *InMemory) Seed(_ context.Context, activities []*models.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range activities {
		if _, exists := s.activities[a.Name]; exists {
			continue
		}
		s.activities[a.Name] = a.Clone()
		s.order = append(s.order, a.Name)
	}
	return nil
}

func (s *InMemory) Health(_ context.Context) error {
	return nil
}
