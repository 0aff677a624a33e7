// Package session keeps the in-memory table of live call sessions.
package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/soyeahso/frontdesk/internal/domain"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
	ErrClosed   = errors.New("session store closed")
)

// Store is the keyed table of active sessions. Every operation is an atomic
// unit under one lock, and sessions handed out are copies.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	closed   bool
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty session store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*domain.Session),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InitialState returns the state a new session of the given mode starts in.
func InitialState(mode domain.Mode) domain.State {
	if mode == domain.ModeChat {
		return domain.StateMainMenu
	}
	return domain.StateLanguageSelection
}

// Create registers a new session. Voice sessions start in language selection,
// chat sessions go straight to the main menu.
func (s *Store) Create(id, callerAddress string, mode domain.Mode, lang domain.Language) (*domain.Session, error) {
	if !mode.Valid() {
		mode = domain.ModeVoice
	}
	now := s.now()
	sess := &domain.Session{
		ID:             id,
		CallerAddress:  callerAddress,
		Mode:           mode,
		Language:       lang,
		State:          InitialState(mode),
		CreatedAt:      now,
		LastActivityAt: now,
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if _, ok := s.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}
	s.sessions[id] = sess
	return sess.Clone(), nil
}

// Get returns a copy of the session with the given id.
func (s *Store) Get(id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sess.Clone(), nil
}

// Mutate runs fn on a working copy of the session and commits it only if fn
// succeeds and the result still satisfies the session invariants.
func (s *Store) Mutate(id string, fn func(*domain.Session) error) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	work := cur.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.ID = cur.ID
	work.CreatedAt = cur.CreatedAt
	work.LastActivityAt = s.now()
	if err := work.Validate(); err != nil {
		return nil, err
	}
	s.sessions[id] = work
	return work.Clone(), nil
}

// Update applies a validated patch.
func (s *Store) Update(id string, p domain.Patch) (*domain.Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.Mutate(id, func(sess *domain.Session) error {
		p.Apply(sess)
		return nil
	})
}

// SetLanguage changes the session language.
func (s *Store) SetLanguage(id string, lang domain.Language) (*domain.Session, error) {
	return s.Update(id, domain.Patch{Language: &lang})
}

// SetState moves the session to another dialog state.
func (s *Store) SetState(id string, state domain.State) (*domain.Session, error) {
	return s.Update(id, domain.Patch{State: &state})
}

// AppendHistory records entries, keeping at most domain.MaxHistory.
func (s *Store) AppendHistory(id string, entries ...domain.HistoryEntry) (*domain.Session, error) {
	return s.Update(id, domain.Patch{AppendHistory: entries})
}

// End removes a session. It reports whether an entry was present; ending an
// unknown id is not an error.
func (s *Store) End(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Sweep removes every session idle for longer than maxAge and returns their IDs.
func (s *Store) Sweep(maxAge time.Duration) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	var removed []string
	for id, sess := range s.sessions {
		if sess.LastActivityAt.Before(cutoff) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	return removed
}

// List returns copies of all sessions ordered by creation time.
func (s *Store) List() []*domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close drops every session and rejects further creation.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.sessions = make(map[string]*domain.Session)
}
