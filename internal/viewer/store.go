package viewer

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*State
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*State),
		ttl:      ttl,
	}
}

func (s *Store) Get(id string) *State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// GetOrCreate returns the session for id. Any id the store did not issue
// gets a fresh session under a newly minted id, so a client cannot choose its
// own. The bool reports whether a session was created.
func (s *Store) GetOrCreate(id string) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.sessions[id]; ok {
		return st, false
	}
	id = uuid.NewString()
	st := NewState(id)
	s.sessions[id] = st
	return st, true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, st := range s.sessions {
		if now.Sub(st.touched()) > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}
