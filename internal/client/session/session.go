// Package session holds the client's current auth state and notifies
// subscribers of login/logout transitions so schedulers can start and stop.
package session

import (
	"sync"

	"github.com/studyhall/studyhall/internal/api"
)

// Session is the signed-in identity.
type Session struct {
	Token    string
	Username string
	Role     api.Role
}

// IsAdmin reports whether the session carries the admin role.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == api.RoleAdmin
}

// Manager owns the current session. A nil current session means signed out.
type Manager struct {
	mu      sync.Mutex
	current *Session
	subs    []func(*Session)
}

func NewManager() *Manager {
	return &Manager{}
}

// Current returns the active session or nil.
func (m *Manager) Current() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Token returns the bearer token for outgoing requests, or "".
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.Token
}

// Set installs a new session and notifies subscribers.
func (m *Manager) Set(s *Session) {
	m.mu.Lock()
	m.current = s
	subs := append([]func(*Session){}, m.subs...)
	m.mu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}

// Clear signs out and notifies subscribers with nil.
func (m *Manager) Clear() {
	m.Set(nil)
}

// Subscribe registers a callback for session transitions. Callbacks run on
// the mutating goroutine; keep them quick.
func (m *Manager) Subscribe(fn func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}
