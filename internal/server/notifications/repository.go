package notifications

import "context"

type Repository interface {
	Create(ctx context.Context, n *Notification) (*Notification, error)
	ListForUser(ctx context.Context, username string) ([]Notification, error)
	MarkRead(ctx context.Context, id, username string) error
	MarkAllRead(ctx context.Context, username string) error
	GetPrefs(ctx context.Context, username string) (*Prefs, error)
	SetPrefs(ctx context.Context, prefs *Prefs) error
}
