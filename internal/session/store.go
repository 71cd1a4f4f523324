package session

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spigell/interview-coach/internal/interview"
)

// Store keeps the live controllers keyed by session id. Sessions share nothing else.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Controller
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Controller)}
}

// Get returns the controller of id or an error wrapping interview.ErrSessionNotFound.
func (s *Store) Get(id string) (*Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, interview.ErrSessionNotFound)
	}
	return c, nil
}

// Add stores c unless its id is taken, in which case the existing controller is returned.
func (s *Store) Add(c *Controller) (*Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[c.ID()]; ok {
		return existing, false
	}
	s.sessions[c.ID()] = c
	return c, true
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// IDs returns the stored session ids in lexical order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
