package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kielo-labs/kielo/internal/model/convo"
)

var (
	ErrIDRequired      = errors.New("session id is required")
	ErrSessionNotFound = errors.New("session not found")
)

// Store holds per-user conversation state in memory. Sessions for
// different ids are fully independent; turns for the same id are
// serialized through the per-entry mutex.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	turn    sync.Mutex
	session convo.Session
}

// NewStore bootstraps the in-memory session store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// GetOrCreate returns a copy of the session for id, creating it in
// StateInitial when the id has not been seen before.
func (s *Store) GetOrCreate(_ context.Context, id string) (convo.Session, error) {
	if id == "" {
		return convo.Session{}, ErrIDRequired
	}
	e, err := s.entryFor(id)
	if err != nil {
		return convo.Session{}, err
	}

	e.turn.Lock()
	defer e.turn.Unlock()
	return cloneSession(e.session), nil
}

// Get returns a copy of an existing session.
func (s *Store) Get(_ context.Context, id string) (convo.Session, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return convo.Session{}, ErrSessionNotFound
	}

	e.turn.Lock()
	defer e.turn.Unlock()
	return cloneSession(e.session), nil
}

// WithSession runs fn against the session for id while holding that
// session's turn lock, so no two turns for the same id ever interleave.
// Mutations made by fn are committed only when fn returns nil; on error
// the stored session is left exactly as it was.
func (s *Store) WithSession(_ context.Context, id string, fn func(*convo.Session) error) error {
	if id == "" {
		return ErrIDRequired
	}
	e, err := s.entryFor(id)
	if err != nil {
		return err
	}

	e.turn.Lock()
	defer e.turn.Unlock()

	working := cloneSession(e.session)
	if err := fn(&working); err != nil {
		return err
	}

	working.UpdatedAt = time.Now().UTC()
	e.session = working
	return nil
}

func (s *Store) entryFor(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[id]; ok {
		return e, nil
	}

	now := time.Now().UTC()
	e = &entry{session: convo.Session{
		ID:        id,
		State:     convo.StateInitial,
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.entries[id] = e
	return e, nil
}

// cloneSession copies the session including its history slice so callers
// never alias stored state.
func cloneSession(in convo.Session) convo.Session {
	out := in
	if in.History != nil {
		out.History = make([]convo.Message, len(in.History))
		copy(out.History, in.History)
	}
	return out
}
