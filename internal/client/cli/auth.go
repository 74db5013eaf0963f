package cli

import (
	"context"
	"fmt"
	"os"
)

// Login prompts for credentials and authenticates. On success the engine
// starts the session's polling domains itself.
func (a *App) Login(ctx context.Context) error {
	username, err := GetSimpleText(a.in, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.core.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Println("Logged in as", username)
	return nil
}

// Register creates a pending account. An admin approves it before the first
// login works.
func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.in, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.in, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := GetPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.core.Register(ctx, username, email, password); err != nil {
		return err
	}
	fmt.Println("Account created; an administrator has to approve it before you can log in.")
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	a.core.Logout(ctx)
	a.lastEvents, a.lastChats, a.lastPosts, a.lastReports, a.lastCards = nil, nil, nil, nil, nil
	fmt.Println("Logged out.")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	info, err := a.core.Rest.SessionInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", info.Username, info.Role)
	return nil
}

// Status reports connectivity and the live badge counters.
func (a *App) Status(ctx context.Context) error {
	if a.core.Watcher.Online() {
		fmt.Println("Server: online")
	} else {
		fmt.Println("Server: OFFLINE (polling paused)")
	}
	if s := a.core.Sessions.Current(); s != nil {
		fmt.Printf("Session: %s (%s)\n", s.Username, s.Role)
		fmt.Printf("Unread messages: %d, unread notifications: %d\n",
			a.core.Chat.TotalUnread(), a.core.Notifs.UnreadCount())
		if s.IsAdmin() {
			fmt.Printf("Unread presence alerts: %d\n", a.core.UnreadAlerts())
		}
	} else {
		fmt.Println("Session: none")
	}
	return nil
}
