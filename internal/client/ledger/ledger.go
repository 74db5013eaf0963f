// Package ledger is the client's durable read/unread record for presence
// alerts. It is local state: the server never sees it, and entries are never
// pruned against the live feed.
package ledger

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/storage"
	"github.com/studyhall/studyhall/internal/logging"
)

const keyPrefix = "presence_read:"

// Ledger tracks which presence-event ids the signed-in user has
// acknowledged. All mutations are read-modify-write against the in-memory
// map under the lock, then persisted, so a toggle racing a timer-driven
// mutation cannot lose updates.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	log      logging.Logger
	username string
	read     map[string]bool
}

// Load reads the ledger persisted for username. Missing or corrupt storage
// yields an empty ledger, never an error.
func Load(ctx context.Context, store storage.Store, username string, log logging.Logger) *Ledger {
	l := &Ledger{
		store:    store,
		log:      log,
		username: username,
		read:     make(map[string]bool),
	}

	data, err := store.Get(ctx, keyPrefix+username)
	if err != nil {
		log.Debug(ctx, "read ledger unavailable, starting empty", "user", username, "error", err)
		return l
	}
	if len(data) == 0 {
		return l
	}
	var m map[string]bool
	if err := json.Unmarshal(data, &m); err != nil {
		log.Debug(ctx, "read ledger corrupt, starting empty", "user", username, "error", err)
		return l
	}
	l.read = m
	return l
}

// Toggle records the read flag for one event id and persists the ledger.
func (l *Ledger) Toggle(ctx context.Context, id string, next bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.read[id] = next
	return l.persistLocked(ctx)
}

// MarkAllRead records every event in the feed as read and persists once.
func (l *Ledger) MarkAllRead(ctx context.Context, events []api.PresenceEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range events {
		l.read[e.ID] = true
	}
	return l.persistLocked(ctx)
}

// IsRead reports whether the event id has been acknowledged.
func (l *Ledger) IsRead(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read[id]
}

// Snapshot returns a copy of the ledger map for pure computations such as
// presence.UnreadAlertCount.
func (l *Ledger) Snapshot() map[string]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]bool, len(l.read))
	for k, v := range l.read {
		out[k] = v
	}
	return out
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(l.read)
	if err != nil {
		return err
	}
	return l.store.Set(ctx, keyPrefix+l.username, data)
}
