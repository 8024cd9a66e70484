package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rshade/boqlca/internal/engine"
)

// Store defaults.
const (
	DefaultMaxSessions = 100
	DefaultIdleTimeout = time.Hour
)

type storedSession struct {
	session  *engine.Session
	lastUsed time.Time
}

// Store holds the live sessions of the server, keyed by UUID.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*storedSession
	max      int
	idle     time.Duration
	now      func() time.Time
}

// NewStore returns an empty store. Non-positive limits take the defaults.
func NewStore(maxSessions int, idle time.Duration) *Store {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &Store{
		sessions: make(map[string]*storedSession),
		max:      maxSessions,
		idle:     idle,
		now:      time.Now,
	}
}

// Add stores s under a new id. Idle sessions are evicted first; if the store
// is still full ErrTooManySessions is returned.
func (st *Store) Add(s *engine.Session) (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.sweepLocked()
	if len(st.sessions) >= st.max {
		return "", ErrTooManySessions
	}
	id := uuid.NewString()
	st.sessions[id] = &storedSession{session: s, lastUsed: st.now()}
	sessionsActive.Set(float64(len(st.sessions)))
	return id, nil
}

// Get returns the session with id and marks it used.
func (st *Store) Get(id string) (*engine.Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	ss, ok := st.sessions[id]
	if !ok || st.expired(ss) {
		return nil, ErrSessionNotFound
	}
	ss.lastUsed = st.now()
	return ss.session, nil
}

// Remove drops the session with id.
func (st *Store) Remove(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(st.sessions, id)
	sessionsActive.Set(float64(len(st.sessions)))
	return nil
}

// Sweep evicts idle sessions and returns how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked()
}

// Len returns the number of stored sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *Store) sweepLocked() int {
	n := 0
	for id, ss := range st.sessions {
		if st.expired(ss) {
			delete(st.sessions, id)
			n++
		}
	}
	if n > 0 {
		sessionsEvicted.Add(float64(n))
	}
	sessionsActive.Set(float64(len(st.sessions)))
	return n
}

func (st *Store) expired(ss *storedSession) bool {
	return st.now().Sub(ss.lastUsed) > st.idle
}
