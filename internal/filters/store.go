// Package filters holds the session's browse criteria. Nothing here is
// persisted.
package filters

import "sync"

type Store struct {
	mu    sync.RWMutex
	state State
}

func NewStore() *Store {
	return &Store{state: Default()}
}

// Filters returns a copy of the current criteria.
func (s *Store) Filters() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// SetFilters replaces the criteria as a whole.
func (s *Store) SetFilters(next State) {
	next = next.normalize()
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

func (s *Store) ResetFilters() {
	s.mu.Lock()
	s.state = Default()
	s.mu.Unlock()
}

func (s *Store) HasActiveFilters() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Active()
}

// Apply filters candidates against the current criteria.
func (s *Store) Apply(candidates []Candidate) []Candidate {
	return s.Filters().Apply(candidates)
}
