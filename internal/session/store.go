package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session owns the ordered turn history of one conversation. History is
// append-only and lives for the process lifetime.
//
// cycleMu serializes whole user-message cycles: the orchestrator holds it
// from appending the user turn until the final answer, so two concurrent
// requests against the same session cannot interleave their turns. The
// inner mutex only protects the slice itself.
type Session struct {
	ID        string
	CreatedAt time.Time

	cycleMu sync.Mutex
	mu      sync.RWMutex
	turns   []Turn
}

// BeginCycle acquires the session's exclusive region for one user-message
// cycle. The returned function releases it.
func (s *Session) BeginCycle() func() {
	s.cycleMu.Lock()
	return s.cycleMu.Unlock
}

// Append adds turns to the history in order.
func (s *Session) Append(turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
}

// History returns a copy of the ordered turn history.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns in the history.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// Store keeps all live sessions, keyed by opaque id. Sessions live until
// the process exits; there is no expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create allocates a fresh session seeded with the system directive turn.
func (st *Store) Create(directive string) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		turns:     []Turn{SystemTurn(directive)},
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
	return s
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
