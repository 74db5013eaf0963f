package cli

import (
	"context"
	"fmt"
	"time"
)

// Presence prints the admin roster split by role, as the 3s poll last saw it.
func (a *App) Presence(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	o := a.core.Presence.Overview()
	fmt.Println("Admins:")
	for _, e := range o.Admins {
		fmt.Printf("  %s %s%s\n", onlineMark(e.Online), e.Username, lastSeenSuffix(e.LastSeenAt))
	}
	fmt.Println("Members:")
	for _, e := range o.Members {
		fmt.Printf("  %s %s%s\n", onlineMark(e.Online), e.Username, lastSeenSuffix(e.LastSeenAt))
	}
	return nil
}

func onlineMark(online bool) string {
	if online {
		return "●"
	}
	return "○"
}

func lastSeenSuffix(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return "  last seen " + t.Local().Format("2006-01-02 15:04:05")
}

// Events prints the activity feed with read markers from the local ledger.
func (a *App) Events(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}

	events := a.core.Presence.Events()
	ledger := a.core.Ledger()
	if len(events) == 0 {
		fmt.Println("No events.")
		a.lastEvents = nil
		return nil
	}
	for i, e := range events {
		mark := " "
		if ledger != nil && ledger.IsRead(e.ID) {
			mark = "✓"
		}
		fmt.Printf("%2d %s %s  %-14s %s (%s)\n",
			i+1, mark, e.OccurredAt.Local().Format("15:04:05"), e.Kind, e.Username, e.Role)
	}
	a.lastEvents = events
	return nil
}

// MarkEvent toggles the read flag on one row from the last events printout.
func (a *App) MarkEvent(ctx context.Context, ref string, read bool) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	i, err := resolveIndex(ref, len(a.lastEvents))
	if err != nil {
		return err
	}
	ledger := a.core.Ledger()
	if ledger == nil {
		return errNotLoggedIn
	}
	return ledger.Toggle(ctx, a.lastEvents[i].ID, read)
}

// ReadAll acknowledges every event currently in the feed.
func (a *App) ReadAll(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	ledger := a.core.Ledger()
	if ledger == nil {
		return errNotLoggedIn
	}
	if err := ledger.MarkAllRead(ctx, a.core.Presence.Events()); err != nil {
		return err
	}
	fmt.Println("All events marked read.")
	return nil
}

// Alerts prints the unread alert count derived from feed minus ledger.
func (a *App) Alerts(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	fmt.Printf("Unread alerts: %d\n", a.core.UnreadAlerts())
	return nil
}
