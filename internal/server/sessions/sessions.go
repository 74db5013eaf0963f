// Package sessions is the server's in-memory bearer-session store. Tokens
// are opaque random hex; a session lives until it idles past the TTL. Online
// presence is derived from lastSeen, which every authenticated request
// refreshes through Touch.
package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/cryptox"
)

// Session is one live login.
type Session struct {
	Token     string
	Username  string
	Role      api.Role
	CreatedAt time.Time
	LastSeen  time.Time
}

// Store holds live sessions keyed by token.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]*Session
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create mints a session for username and returns it.
func (s *Store) Create(username string, role api.Role) (*Session, error) {
	token, err := cryptox.RandomToken(32)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		Token:     token,
		Username:  username,
		Role:      role,
		CreatedAt: now,
		LastSeen:  now,
	}

	s.mu.Lock()
	s.sessions[token] = sess
	s.mu.Unlock()
	return sess, nil
}

// Get returns the live session for token. An idled-out session is dropped
// and reported as a miss.
func (s *Store) Get(token string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.LastSeen) > s.ttl {
		delete(s.sessions, token)
		return nil, false
	}
	out := *sess
	return &out, true
}

// Touch refreshes the session's lastSeen. Called on every authenticated
// request.
func (s *Store) Touch(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[token]; ok {
		sess.LastSeen = s.now()
	}
}

// Delete ends a session (logout).
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// DeleteForUser ends every session owned by username.
func (s *Store) DeleteForUser(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, sess := range s.sessions {
		if sess.Username == username {
			delete(s.sessions, token)
		}
	}
}

// Count returns the number of live sessions. Feeds the active-sessions gauge.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	now := s.now()
	for _, sess := range s.sessions {
		if now.Sub(sess.LastSeen) <= s.ttl {
			n++
		}
	}
	return n
}

// LastSeenFor returns the newest lastSeen across username's live sessions.
func (s *Store) LastSeenFor(username string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var newest time.Time
	found := false
	now := s.now()
	for _, sess := range s.sessions {
		if sess.Username != username || now.Sub(sess.LastSeen) > s.ttl {
			continue
		}
		if sess.LastSeen.After(newest) {
			newest = sess.LastSeen
			found = true
		}
	}
	return newest, found
}

// Purge drops idled-out sessions.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for token, sess := range s.sessions {
		if now.Sub(sess.LastSeen) > s.ttl {
			delete(s.sessions, token)
		}
	}
}

// RunPurge purges on an interval until ctx is cancelled.
func (s *Store) RunPurge(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Purge()
		}
	}
}
