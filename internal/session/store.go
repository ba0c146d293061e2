// Package session owns per-session conversation history: a mapping from
// session id to a bounded queue of model messages. History never crosses
// sessions and each session can be cleared independently.
package session

import (
	"sync"

	"github.com/calendav/assistant-backend/internal/intent"
)

type Store struct {
	mu       sync.Mutex
	limit    int
	sessions map[string][]intent.Message
}

// NewStore creates a store keeping at most limit messages per session; the
// oldest entries are evicted first.
func NewStore(limit int) *Store {
	return &Store{
		limit:    limit,
		sessions: make(map[string][]intent.Message),
	}
}

func (s *Store) Append(id string, messages ...intent.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.sessions[id], messages...)
	if len(history) > s.limit {
		history = history[len(history)-s.limit:]
	}
	s.sessions[id] = history
}

// History returns a copy of the session's messages, oldest first.
func (s *Store) History(id string) []intent.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.sessions[id]
	out := make([]intent.Message, len(history))
	copy(out, history)
	return out
}

func (s *Store) Clear(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}
