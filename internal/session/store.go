package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/imj25/digital-shield/internal/cache"
)

const (
	// maxHistory bounds the chat transcript kept per session.
	maxHistory = 50

	resolvedPathKeyPrefix = "digital-shield:resolved-path:"
)

// Message is one entry of a session's chat transcript.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session carries per-browser-session state: the sticky resolved assistant
// path and a bounded chat history. One session handles one in-flight request
// at a time by construction, but the HTTP server is concurrent, so access
// goes through the mutex anyway.
type Session struct {
	ID string

	mu           sync.Mutex
	resolvedPath string
	history      []Message
	lastSeen     time.Time
}

// ResolvedPath returns the assistant path that last succeeded for this
// session, or "" when none has been discovered yet.
func (s *Session) ResolvedPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvedPath
}

// SetResolvedPath records the path that just succeeded. Overwritten on every
// new success, read at the start of every assistant call.
func (s *Session) SetResolvedPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resolvedPath = path
}

// Append adds a transcript entry, dropping the oldest once the bound is hit.
func (s *Session) Append(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, Message{Role: role, Content: content, Timestamp: time.Now().UTC()})
	if len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

// History returns a copy of the transcript.
func (s *Session) History() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.history...)
}

// Store keeps sessions in memory, keyed by ID, and mirrors resolved paths to
// a shared cache so a restarted replica does not have to rediscover the
// assistant endpoint.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	shared   cache.Provider
}

// NewStore constructs a Store. shared may be nil; ttl <= 0 disables expiry.
func NewStore(ttl time.Duration, shared cache.Provider) *Store {
	if shared == nil {
		shared = cache.NoopProvider{}
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		shared:   shared,
	}
}

// Get returns the session for id, creating one when id is unknown or empty.
// The second return reports whether a new session was created.
func (st *Store) Get(ctx context.Context, id string) (*Session, bool) {
	now := time.Now()

	st.mu.Lock()
	st.sweepLocked(now)
	if id != "" {
		if s, ok := st.sessions[id]; ok {
			s.mu.Lock()
			s.lastSeen = now
			s.mu.Unlock()
			st.mu.Unlock()
			return s, false
		}
	}

	s := &Session{ID: uuid.NewString(), lastSeen: now}
	st.sessions[s.ID] = s
	st.mu.Unlock()

	// A fresh session may still inherit a previously discovered path.
	if data, err := st.shared.Get(ctx, resolvedPathKeyPrefix+"global"); err == nil && len(data) > 0 {
		s.SetResolvedPath(string(data))
	}
	return s, true
}

// RememberResolvedPath mirrors a freshly discovered path into the shared
// cache alongside the session-local copy.
func (st *Store) RememberResolvedPath(ctx context.Context, s *Session, path string) {
	s.SetResolvedPath(path)
	_ = st.shared.Set(ctx, resolvedPathKeyPrefix+"global", []byte(path), st.ttl)
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// sweepLocked drops sessions idle past the TTL. Caller holds st.mu.
func (st *Store) sweepLocked(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, s := range st.sessions {
		s.mu.Lock()
		idle := now.Sub(s.lastSeen)
		s.mu.Unlock()
		if idle > st.ttl {
			delete(st.sessions, id)
		}
	}
}

// ErrNotFound reports an unknown session ID on lookups that do not create.
var ErrNotFound = errors.New("session not found")

// Lookup returns an existing session without creating one.
func (st *Store) Lookup(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}
