// Package presence derives who is online from session activity and keeps
// the admin activity feed. Nothing here is persisted: a restart empties the
// feed and drops everyone to offline until their next request.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/server/users"
)

const (
	ringCapacity = 500
	maxFeedLimit = 100
	defaultLimit = 20
)

// Ring is a bounded newest-first event buffer.
type Ring struct {
	mu     sync.Mutex
	events []api.PresenceEvent
}

func NewRing() *Ring {
	return &Ring{}
}

// Add appends one event, evicting the oldest past capacity.
func (r *Ring) Add(e api.PresenceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if len(r.events) > ringCapacity {
		r.events = r.events[len(r.events)-ringCapacity:]
	}
}

// Newest returns up to limit events, newest first.
func (r *Ring) Newest(limit int) []api.PresenceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if limit > len(r.events) {
		limit = len(r.events)
	}

	out := make([]api.PresenceEvent, 0, limit)
	for i := len(r.events) - 1; i >= len(r.events)-limit; i-- {
		out = append(out, r.events[i])
	}
	return out
}

// SessionSource answers "when was this user last active".
type SessionSource interface {
	LastSeenFor(username string) (time.Time, bool)
}

// UserSource lists accounts for the roster.
type UserSource interface {
	List(ctx context.Context) ([]users.User, error)
}

// Service builds rosters and emits feed events.
type Service struct {
	ring     *Ring
	sessions SessionSource
	users    UserSource
	window   time.Duration
	now      func() time.Time

	// onEvent is an optional hook for the metrics counter.
	onEvent func(kind api.EventKind)
}

func NewService(ring *Ring, sessions SessionSource, userSource UserSource, window time.Duration) *Service {
	return &Service{
		ring:     ring,
		sessions: sessions,
		users:    userSource,
		window:   window,
		now:      time.Now,
	}
}

// SetOnEvent registers the per-kind event hook.
func (s *Service) SetOnEvent(fn func(kind api.EventKind)) {
	s.onEvent = fn
}

// Emit records one activity event.
func (s *Service) Emit(kind api.EventKind, username string, role api.Role) {
	s.ring.Add(api.PresenceEvent{
		ID:         uuid.NewString(),
		Username:   username,
		Role:       role,
		Kind:       kind,
		OccurredAt: s.now(),
	})
	if s.onEvent != nil {
		s.onEvent(kind)
	}
}

// Events returns the newest feed entries.
func (s *Service) Events(limit int) []api.PresenceEvent {
	return s.ring.Newest(limit)
}

// Overview builds the full roster split by role. A user is online iff they
// own a live session seen within the online window; lastSeenAt prefers live
// session activity over the stored lastLoginAt.
func (s *Service) Overview(ctx context.Context) (api.PresenceOverview, error) {
	accounts, err := s.users.List(ctx)
	if err != nil {
		return api.PresenceOverview{}, err
	}

	now := s.now()
	var o api.PresenceOverview
	for _, u := range accounts {
		entry := api.PresenceEntry{
			Username:   u.Username,
			Role:       u.Role,
			LastSeenAt: u.LastLoginAt,
		}
		if seen, ok := s.sessions.LastSeenFor(u.Username); ok {
			t := seen
			entry.LastSeenAt = &t
			entry.Online = now.Sub(seen) <= s.window
		}
		if u.Role == api.RoleAdmin {
			o.Admins = append(o.Admins, entry)
		} else {
			o.Members = append(o.Members, entry)
		}
	}
	return o, nil
}
