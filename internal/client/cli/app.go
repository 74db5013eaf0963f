// Package cli is the interactive shell over the client engine. It renders
// the stores the polling core keeps fresh and turns typed commands into
// engine calls; list commands remember what they printed so follow-up
// commands can refer to rows by number.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/app"
	"github.com/studyhall/studyhall/internal/client/config"
)

// App binds the REPL to the client engine.
type App struct {
	core *app.App
	in   *bufio.Reader

	// Row snapshots from the most recent list command, so "open 2" or
	// "like 1" can resolve a number against what the user last saw.
	lastEvents  []api.PresenceEvent
	lastChats   []api.ConversationSummary
	lastPosts   []api.Post
	lastReports []api.Report
	lastCards   []api.Flashcard
}

func NewApp(cfg *config.Config) (*App, error) {
	core, err := app.New(cfg)
	if err != nil {
		return nil, err
	}
	return &App{core: core, in: bufio.NewReader(os.Stdin)}, nil
}

// Run starts the background watcher and blocks in the REPL until the user
// exits or stdin closes.
func (a *App) Run(ctx context.Context) {
	fmt.Println("Welcome to StudyHall CLI (type 'help' for commands)")

	a.core.Start(ctx)
	defer a.core.Shutdown()

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(os.Stdin))
}

func (a *App) isLoggedIn() bool {
	return a.core.Sessions.Current() != nil
}

func (a *App) isAdmin() bool {
	return a.core.Sessions.Current().IsAdmin()
}

// getStatus renders the prompt suffix: identity, connectivity, and the
// unread badges the polls keep current.
func (a *App) getStatus() string {
	s := a.core.Sessions.Current()
	if s == nil {
		return "(not logged in)"
	}

	out := s.Username
	if s.IsAdmin() {
		out += " admin"
	}
	if !a.core.Watcher.Online() {
		out += " OFFLINE"
	}
	if n := a.core.Chat.TotalUnread(); n > 0 {
		out += fmt.Sprintf(" msg:%d", n)
	}
	if n := a.core.Notifs.UnreadCount(); n > 0 {
		out += fmt.Sprintf(" notif:%d", n)
	}
	if s.IsAdmin() {
		if n := a.core.UnreadAlerts(); n > 0 {
			out += fmt.Sprintf(" alerts:%d", n)
		}
	}
	return "(" + out + ")"
}

// resolveIndex turns a 1-based row reference from a list printout into a
// slice index.
func resolveIndex(ref string, length int) (int, error) {
	n, err := strconv.Atoi(ref)
	if err != nil || n < 1 || n > length {
		return 0, fmt.Errorf("no such row %q (run the list command first)", ref)
	}
	return n - 1, nil
}

var errNotLoggedIn = fmt.Errorf("not logged in")

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func (a *App) requireAdmin() error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if !a.isAdmin() {
		return fmt.Errorf("admin only")
	}
	return nil
}

var _ execIface = (*App)(nil)
