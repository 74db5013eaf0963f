package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Notifs prints the notification list the 5s poll keeps fresh.
func (a *App) Notifs(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	items := a.core.Notifs.Items()
	if len(items) == 0 {
		fmt.Println("No notifications.")
		return nil
	}
	for i, it := range items {
		mark := " "
		if it.ReadAt != nil {
			mark = "✓"
		}
		fmt.Printf("%2d %s %s  %-16s %s\n",
			i+1, mark, it.CreatedAt.Local().Format("01-02 15:04"), it.Kind, renderPayload(it.Payload))
	}
	return nil
}

func renderPayload(p map[string]string) string {
	if msg, ok := p["message"]; ok {
		return msg
	}
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

// NotifRead marks one row from the last notifs printout read on the server.
func (a *App) NotifRead(ctx context.Context, ref string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	items := a.core.Notifs.Items()
	i, err := resolveIndex(ref, len(items))
	if err != nil {
		return err
	}
	return a.core.Rest.MarkNotificationRead(ctx, items[i].ID)
}

func (a *App) NotifReadAll(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.core.Rest.MarkAllNotificationsRead(ctx); err != nil {
		return err
	}
	fmt.Println("All notifications marked read.")
	return nil
}

// Prefs shows the delivery preferences and offers to change them.
func (a *App) Prefs(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	prefs, err := a.core.Rest.NotificationPrefs(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("direct messages: %v, community: %v, system: %v\n",
		prefs.DirectMessages, prefs.Community, prefs.System)

	answer, err := GetSimpleText(a.in, "Change? Enter on/off flags as 'dm community system' (e.g. 'on off on'), empty to keep", os.Stdout)
	if err != nil || answer == "" {
		return err
	}
	fields := strings.Fields(answer)
	if len(fields) != 3 {
		return fmt.Errorf("expected three on/off values")
	}
	prefs.DirectMessages = fields[0] == "on"
	prefs.Community = fields[1] == "on"
	prefs.System = fields[2] == "on"
	if err := a.core.Rest.SetNotificationPrefs(ctx, prefs); err != nil {
		return err
	}
	fmt.Println("Preferences saved.")
	return nil
}
