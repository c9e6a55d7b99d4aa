package store

import (
	"context"
	"sync"

	"github.com/jachren-f4/together-reminder-sub003/internal/domain"
	"github.com/jachren-f4/together-reminder-sub003/internal/errors"
)

// Memory is an in-process Store used in tests and single-node mode. Sessions
// are cloned on the way in and out so callers never alias internal state.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]*domain.Session),
	}
}

func (m *Memory) Get(_ context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	return s.Clone(), nil
}

func (m *Memory) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[s.ID]; ok {
		return errors.New(errors.CodeAlreadyExists, errors.WithMessagef("session already exists: %s", s.ID))
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

func (m *Memory) Mutate(_ context.Context, id string, fn func(*domain.Session) error) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, notFound(id)
	}

	next := s.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	m.sessions[id] = next
	return next.Clone(), nil
}

func (m *Memory) Finalize(_ context.Context, id string, lp int64) (*domain.Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, false, notFound(id)
	}

	if s.Completed {
		return s.Clone(), false, nil
	}

	next := s.Clone()
	next.Completed = true
	next.LPEarned = &lp
	m.sessions[id] = next
	return next.Clone(), true, nil
}
