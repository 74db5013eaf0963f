// Package notifications owns per-user notification rows and delivery
// preferences. Other domains push through the service, which drops anything
// the recipient has turned off.
package notifications

import (
	"time"

	"github.com/studyhall/studyhall/internal/api"
)

// Notification kinds.
const (
	KindDirectMessage = "direct_message"
	KindCommunity     = "community_post"
	KindSystem        = "system"
)

// Notification is one row addressed to a user.
type Notification struct {
	ID        string
	Username  string
	Kind      string
	Payload   map[string]string
	CreatedAt time.Time
	ReadAt    *time.Time
}

// Item converts to the wire shape.
func (n *Notification) Item() api.NotificationItem {
	return api.NotificationItem{
		ID:        n.ID,
		Kind:      n.Kind,
		Payload:   n.Payload,
		CreatedAt: n.CreatedAt,
		ReadAt:    n.ReadAt,
	}
}

// Prefs controls which kinds reach the user. Everything defaults to on.
type Prefs struct {
	Username       string
	DirectMessages bool
	Community      bool
	System         bool
}

func defaultPrefs(username string) *Prefs {
	return &Prefs{Username: username, DirectMessages: true, Community: true, System: true}
}
