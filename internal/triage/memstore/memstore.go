// Package memstore provides an in-memory implementation of triage.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/linnemanlabs/opsinbox/internal/audit"
)

// Store holds audit events in memory. Suitable for dev/testing.
type Store struct {
	mu     sync.RWMutex
	events map[string]*audit.Event // event ID -> event
	order  []string                // insertion order
}

// New initializes a new in-memory Store.
func New() *Store {
	return &Store{
		events: make(map[string]*audit.Event),
	}
}

// Put stores a copy of the audit event. A re-run of the same day and
// sequence overwrites the prior event under the same id.
func (s *Store) Put(_ context.Context, ev *audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.events[ev.ID]; !exists {
		s.order = append(s.order, ev.ID)
	}
	cp := *ev
	s.events[ev.ID] = &cp
	return nil
}

// Get retrieves an audit event by its ID. Returns a copy.
func (s *Store) Get(_ context.Context, id string) (*audit.Event, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return nil, false, nil
	}
	cp := *ev
	return &cp, true, nil
}

// List returns all stored events in insertion order, as copies.
func (s *Store) List(_ context.Context) ([]*audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*audit.Event, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.events[id]
		out = append(out, &cp)
	}
	return out, nil
}
