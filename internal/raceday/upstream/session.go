package upstream

import (
	"net/http"
	"sync"
	"time"
)

// SessionStore holds the current authentication cookie set for the upstream
// racing service. There is at most one live session per process; replacement
// is an atomic swap so concurrent readers observe either the previous or the
// new complete cookie set, never a mix.
//
// The store enforces no TTL. Freshness is validated by AuthManager through a
// live probe, not by inspecting timestamps.
type SessionStore struct {
	mu            sync.RWMutex
	cookies       []*http.Cookie
	establishedAt time.Time
}

// NewSessionStore returns an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Set replaces the session cookie set. The slice is copied; callers may
// reuse their slice afterwards.
func (s *SessionStore) Set(cookies []*http.Cookie) {
	cp := make([]*http.Cookie, len(cookies))
	copy(cp, cookies)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = cp
	s.establishedAt = time.Now()
}

// Current returns the cookie set for request construction. The returned
// slice must not be modified.
func (s *SessionStore) Current() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cookies
}

// IsEmpty reports whether no session has been established.
func (s *SessionStore) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cookies) == 0
}

// EstablishedAt returns when the current session was set. Zero if empty.
func (s *SessionStore) EstablishedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.establishedAt
}
