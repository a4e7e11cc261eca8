package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/acesonder/outreach/internal/sentinel"
	id "github.com/acesonder/outreach/pkg/domain"
)

// InMemoryStore keeps profiles in memory for tests and dev.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]*Profile
}

// NewInMemoryStore constructs an empty in-memory profile store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]*Profile)}
}

func (s *InMemoryStore) Create(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return nil
	}
	clone := *p
	s.profiles[p.UserID] = &clone
	return nil
}

func (s *InMemoryStore) FindByUser(_ context.Context, userID id.UserID) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) Update(_ context.Context, p *Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		return fmt.Errorf("profile not found: %w", sentinel.ErrNotFound)
	}
	clone := *p
	s.profiles[p.UserID] = &clone
	return nil
}
