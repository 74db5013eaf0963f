// Package presence reconciles polled roster and activity-feed snapshots
// into stable views. The server is authoritative; this layer only dedupes,
// orders, and counts.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/studyhall/studyhall/internal/api"
)

// feedWindow is how many activity events the client keeps visible.
const feedWindow = 20

// MergeRoster replaces previous with incoming and recomputes display order:
// online entries first, then most recent lastSeenAt first, username ascending
// as the tie-break so the order is deterministic. Duplicate usernames in a
// snapshot collapse, last one wins.
func MergeRoster(previous, incoming []api.PresenceEntry) []api.PresenceEntry {
	_ = previous // server snapshots fully replace local state

	byName := make(map[string]int, len(incoming))
	merged := make([]api.PresenceEntry, 0, len(incoming))
	for _, e := range incoming {
		if i, ok := byName[e.Username]; ok {
			merged[i] = e
			continue
		}
		byName[e.Username] = len(merged)
		merged = append(merged, e)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.Online != b.Online {
			return a.Online
		}
		at, bt := lastSeen(a), lastSeen(b)
		if !at.Equal(bt) {
			return at.After(bt)
		}
		return a.Username < b.Username
	})

	return merged
}

// lastSeen treats a never-seen account as the zero time so it sorts last.
func lastSeen(e api.PresenceEntry) time.Time {
	if e.LastSeenAt != nil {
		return *e.LastSeenAt
	}
	return time.Time{}
}

// MergeEvents sorts the polled feed newest-first and trims it to the
// client's window.
func MergeEvents(incoming []api.PresenceEvent) []api.PresenceEvent {
	events := make([]api.PresenceEvent, len(incoming))
	copy(events, incoming)
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].OccurredAt.Equal(events[j].OccurredAt) {
			return events[i].OccurredAt.After(events[j].OccurredAt)
		}
		return events[i].ID < events[j].ID
	})
	if len(events) > feedWindow {
		events = events[:feedWindow]
	}
	return events
}

// UnreadAlertCount counts events whose id is absent or false in the ledger.
// An empty feed counts as zero.
func UnreadAlertCount(events []api.PresenceEvent, ledger map[string]bool) int {
	n := 0
	for _, e := range events {
		if !ledger[e.ID] {
			n++
		}
	}
	return n
}

// Store caches the latest reconciled presence view for rendering.
type Store struct {
	mu     sync.Mutex
	roster api.PresenceOverview
	events []api.PresenceEvent
}

func NewStore() *Store {
	return &Store{}
}

// ApplyOverview reconciles a roster snapshot into the store.
func (s *Store) ApplyOverview(o api.PresenceOverview) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster.Admins = MergeRoster(s.roster.Admins, o.Admins)
	s.roster.Members = MergeRoster(s.roster.Members, o.Members)
}

// ApplyEvents reconciles a feed snapshot into the store.
func (s *Store) ApplyEvents(events []api.PresenceEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = MergeEvents(events)
}

// Overview returns the latest reconciled roster.
func (s *Store) Overview() api.PresenceOverview {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := api.PresenceOverview{
		Admins:  make([]api.PresenceEntry, len(s.roster.Admins)),
		Members: make([]api.PresenceEntry, len(s.roster.Members)),
	}
	copy(out.Admins, s.roster.Admins)
	copy(out.Members, s.roster.Members)
	return out
}

// Events returns the latest reconciled feed, newest first.
func (s *Store) Events() []api.PresenceEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.PresenceEvent, len(s.events))
	copy(out, s.events)
	return out
}

// Reset drops cached state. Called on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = api.PresenceOverview{}
	s.events = nil
}
