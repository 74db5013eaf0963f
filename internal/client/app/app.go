// Package app wires the client together: config, logging, storage, REST,
// session, connectivity, the polling scheduler, and the domain stores. It
// owns the lifecycle coupling (which domains poll, when they start, and
// when they are torn down) so the CLI layer stays purely presentational.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/chat"
	"github.com/studyhall/studyhall/internal/client/config"
	"github.com/studyhall/studyhall/internal/client/ledger"
	"github.com/studyhall/studyhall/internal/client/netwatch"
	"github.com/studyhall/studyhall/internal/client/poll"
	"github.com/studyhall/studyhall/internal/client/presence"
	"github.com/studyhall/studyhall/internal/client/quiz"
	"github.com/studyhall/studyhall/internal/client/rest"
	"github.com/studyhall/studyhall/internal/client/session"
	"github.com/studyhall/studyhall/internal/client/storage"
	"github.com/studyhall/studyhall/internal/logging"
)

// Polled domains.
const (
	DomainRoster        = "presence-roster"
	DomainEvents        = "presence-events"
	DomainConversations = "conversations"
	DomainMessages      = "messages"
	DomainNotifications = "notifications"
	DomainReports       = "reports"
)

// App is the client engine.
type App struct {
	cfg   *config.Config
	log   logging.Logger
	store storage.Store
	db    *sql.DB

	Rest     *rest.Client
	Sessions *session.Manager
	Watcher  *netwatch.Watcher
	sched    *poll.Scheduler

	Presence *presence.Store
	Chat     *chat.Store
	Notifs   *NotifStore

	mu         sync.Mutex
	ledger     *ledger.Ledger
	quizzing   *quiz.Machine
	quizCancel context.CancelFunc
}

// New builds the fully wired client.
func New(cfg *config.Config) (*App, error) {
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	var store storage.Store
	st, db, err := storage.Open(ctx, filepath.Join(cfg.DataDir, "studyhall.db"))
	if err != nil {
		// Degrade to an in-memory store: the ledger and quiz slots lose
		// durability but the client stays usable.
		log.Warn(ctx, "client storage unavailable, using in-memory store", "error", err)
		store = storage.NewMemory()
	} else {
		store = st
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		store:    store,
		db:       db,
		Sessions: session.NewManager(),
		Presence: presence.NewStore(),
		Chat:     chat.NewStore(),
		Notifs:   NewNotifStore(),
	}
	a.Rest = rest.NewClient(cfg.ServerAddr, cfg.RequestTimeout, a.Sessions.Token)
	a.Watcher = netwatch.NewWatcher(a.Rest, cfg.PingInterval, log)
	a.sched = poll.NewScheduler(poll.SystemClock{}, log)

	a.Sessions.Subscribe(a.onSession)
	a.Watcher.Subscribe(a.onConnectivity)

	return a, nil
}

// Run starts the background connectivity watcher and blocks until ctx ends.
func (a *App) Run(ctx context.Context) {
	go a.Watcher.Run(ctx)
	<-ctx.Done()
	a.Shutdown()
}

// Start launches background machinery without blocking. Used by the CLI.
func (a *App) Start(ctx context.Context) {
	go a.Watcher.Run(ctx)
}

// Shutdown tears down timers and closes storage.
func (a *App) Shutdown() {
	a.sched.CancelAll()
	a.stopQuizRunner()
	if a.db != nil {
		_ = a.db.Close()
	}
}

func (a *App) Log() logging.Logger { return a.log }

// --- auth ---

// Login authenticates and installs the session; scheduler start is driven
// by the session subscription.
func (a *App) Login(ctx context.Context, username, password string) error {
	resp, err := a.Rest.Login(ctx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	a.Sessions.Set(&session.Session{Token: resp.Token, Username: resp.Username, Role: resp.Role})
	a.log.Info(ctx, "logged in", "user", resp.Username, "role", resp.Role)
	return nil
}

// Register creates a pending account; an admin has to approve it before the
// first login.
func (a *App) Register(ctx context.Context, username, email, password string) error {
	if err := a.Rest.Signup(ctx, api.SignupRequest{Username: username, Email: email, Password: password}); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// Logout ends the server session (best effort) and clears local state.
func (a *App) Logout(ctx context.Context) {
	if err := a.Rest.Logout(ctx); err != nil {
		a.log.Debug(ctx, "logout call failed", "error", err)
	}
	a.Sessions.Clear()
}

// --- lifecycle coupling ---

// onSession reacts to login/logout transitions.
func (a *App) onSession(s *session.Session) {
	ctx := context.Background()

	if s == nil {
		a.sched.CancelAll()
		a.stopQuizRunner()
		a.Presence.Reset()
		a.Chat.Reset()
		a.Notifs.Reset()
		a.mu.Lock()
		a.ledger = nil
		a.quizzing = nil
		a.mu.Unlock()
		return
	}

	a.mu.Lock()
	a.ledger = ledger.Load(ctx, a.store, s.Username, a.log)
	a.mu.Unlock()

	a.startSchedulers(s)
}

// onConnectivity pauses all polling offline and resumes it on reconnect;
// the quiz machine gets the transition either way.
func (a *App) onConnectivity(online bool) {
	ctx := context.Background()

	a.mu.Lock()
	m := a.quizzing
	a.mu.Unlock()
	if m != nil {
		m.SetOnline(ctx, online)
	}

	if !online {
		a.sched.CancelAll()
		return
	}
	if s := a.Sessions.Current(); s != nil {
		a.startSchedulers(s)
		if id := a.Chat.SelectedID(); id != "" {
			a.scheduleMessages(id)
		}
	}
}

// startSchedulers registers the session-scoped domains, plus the admin-only
// domains for admin sessions. Admin domains are torn down for everyone else.
func (a *App) startSchedulers(s *session.Session) {
	a.sched.Schedule(DomainConversations, a.cfg.ConversationsInterval, a.conversationsTask())
	a.sched.Schedule(DomainNotifications, a.cfg.NotificationsInterval, a.notificationsTask())

	if s.IsAdmin() {
		a.sched.Schedule(DomainRoster, a.cfg.RosterInterval, a.rosterTask())
		a.sched.Schedule(DomainEvents, a.cfg.EventsInterval, a.eventsTask())
		a.sched.Schedule(DomainReports, a.cfg.ReportsInterval, a.reportsTask())
	} else {
		a.sched.Cancel(DomainRoster)
		a.sched.Cancel(DomainEvents)
		a.sched.Cancel(DomainReports)
	}
}

// --- poll tasks ---

func (a *App) rosterTask() poll.Task {
	return func(ctx context.Context) (func(), error) {
		o, err := a.Rest.PresenceOverview(ctx)
		if err != nil {
			return nil, err
		}
		return func() { a.Presence.ApplyOverview(o) }, nil
	}
}

func (a *App) eventsTask() poll.Task {
	return func(ctx context.Context) (func(), error) {
		events, err := a.Rest.PresenceEvents(ctx, 20)
		if err != nil {
			return nil, err
		}
		return func() { a.Presence.ApplyEvents(events) }, nil
	}
}

func (a *App) conversationsTask() poll.Task {
	return func(ctx context.Context) (func(), error) {
		convs, err := a.Rest.Conversations(ctx)
		if err != nil {
			return nil, err
		}
		return func() { a.Chat.ApplyConversations(convs) }, nil
	}
}

func (a *App) messagesTask(conversationID string) poll.Task {
	return func(ctx context.Context) (func(), error) {
		msgs, err := a.Rest.Messages(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		return func() { a.Chat.ApplyMessages(conversationID, msgs) }, nil
	}
}

func (a *App) notificationsTask() poll.Task {
	return func(ctx context.Context) (func(), error) {
		items, err := a.Rest.Notifications(ctx)
		if err != nil {
			return nil, err
		}
		return func() { a.Notifs.ApplyItems(items) }, nil
	}
}

func (a *App) reportsTask() poll.Task {
	return func(ctx context.Context) (func(), error) {
		reports, err := a.Rest.Reports(ctx)
		if err != nil {
			return nil, err
		}
		return func() { a.Notifs.ApplyReports(reports) }, nil
	}
}

// --- presence / ledger ---

// Ledger returns the signed-in user's read ledger, or nil when signed out.
func (a *App) Ledger() *ledger.Ledger {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ledger
}

// UnreadAlerts computes the alert badge from the live feed and the ledger.
func (a *App) UnreadAlerts() int {
	l := a.Ledger()
	if l == nil {
		return 0
	}
	return presence.UnreadAlertCount(a.Presence.Events(), l.Snapshot())
}

// --- chat actions ---

// OpenConversation opens (or creates) a chat with participant and selects it.
func (a *App) OpenConversation(ctx context.Context, participant string) (api.ConversationSummary, error) {
	conv, err := a.Rest.OpenConversation(ctx, participant)
	if err != nil {
		return api.ConversationSummary{}, fmt.Errorf("opening conversation: %w", err)
	}
	a.SelectConversation(ctx, conv.ID)
	return conv, nil
}

// SelectConversation focuses a conversation: the unread badge zeroes
// immediately and the mark-read call is fired without rollback on failure;
// the next poll re-converges either way.
func (a *App) SelectConversation(ctx context.Context, id string) {
	a.Chat.Select(id)
	if err := a.Rest.MarkConversationRead(ctx, id); err != nil {
		a.log.Debug(ctx, "mark-read failed", "conversation", id, "error", err)
	}
	a.scheduleMessages(id)
}

func (a *App) scheduleMessages(id string) {
	a.sched.Schedule(DomainMessages, a.cfg.MessagesInterval, a.messagesTask(id))
}

// CloseConversation closes the chat panel and stops the messages domain.
func (a *App) CloseConversation() {
	a.Chat.Close()
	a.sched.Cancel(DomainMessages)
}

// SendMessage issues the write and merges the returned message; a poll
// returning the same id cannot double it.
func (a *App) SendMessage(ctx context.Context, body string) (api.Message, error) {
	id := a.Chat.SelectedID()
	if id == "" {
		return api.Message{}, fmt.Errorf("no open conversation")
	}
	msg, err := a.Rest.SendMessage(ctx, id, body)
	if err != nil {
		return api.Message{}, fmt.Errorf("sending message: %w", err)
	}
	a.Chat.ApplySent(msg)
	return msg, nil
}

// DeleteConversation soft-deletes a chat for this user.
func (a *App) DeleteConversation(ctx context.Context, id string) error {
	if err := a.Rest.DeleteConversation(ctx, id); err != nil {
		return err
	}
	if a.Chat.SelectedID() == id {
		a.CloseConversation()
	}
	return nil
}

// --- quiz actions ---

// StartQuiz fetches the deck and either restores a persisted in-progress
// session or creates a fresh machine in selecting-mode.
func (a *App) StartQuiz(ctx context.Context, deckID string) (*quiz.Machine, bool, error) {
	detail, err := a.Rest.FlashcardDetail(ctx, deckID)
	if err != nil {
		return nil, false, fmt.Errorf("loading deck: %w", err)
	}
	if detail.Status != api.DeckReady {
		return nil, false, fmt.Errorf("deck %q is not ready (status %s)", detail.Title, detail.Status)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if m, ok := quiz.Restore(ctx, deckID, detail.Questions, a.store, quiz.SystemClock{}, a.log); ok {
		m.SetOnline(ctx, a.Watcher.Online())
		a.quizzing = m
		a.startQuizRunnerLocked()
		return m, true, nil
	}

	m := quiz.New(deckID, detail.Questions, a.store, quiz.SystemClock{}, a.log)
	a.quizzing = m
	return m, false, nil
}

// BeginQuiz starts the machine in the chosen mode and launches the runner.
func (a *App) BeginQuiz(ctx context.Context, mode quiz.Mode, easySeconds int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quizzing == nil {
		return fmt.Errorf("no quiz selected")
	}
	if err := a.quizzing.Start(ctx, mode, easySeconds); err != nil {
		return err
	}
	a.quizzing.SetOnline(ctx, a.Watcher.Online())
	a.startQuizRunnerLocked()
	return nil
}

func (a *App) startQuizRunnerLocked() {
	if a.quizCancel != nil {
		a.quizCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.quizCancel = cancel
	go quiz.NewRunner(a.quizzing).Run(ctx)
}

func (a *App) stopQuizRunner() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.quizCancel != nil {
		a.quizCancel()
		a.quizCancel = nil
	}
}

// Quiz returns the active machine, or nil.
func (a *App) Quiz() *quiz.Machine {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quizzing
}

// EndQuiz drops the machine reference after finish/abort.
func (a *App) EndQuiz() {
	a.stopQuizRunner()
	a.mu.Lock()
	a.quizzing = nil
	a.mu.Unlock()
}

// Explain asks the explanation service about the machine's current
// question. Only meaningful in practice mode; failures are returned inline
// and leave quiz state untouched.
func (a *App) Explain(ctx context.Context) (string, error) {
	m := a.Quiz()
	if m == nil || !m.CanExplain() {
		return "", fmt.Errorf("explanations are available in practice mode only")
	}
	q, ok := m.CurrentQuestion()
	if !ok {
		return "", fmt.Errorf("no current question")
	}
	resp, err := a.Rest.Explain(ctx, api.ExplainRequest{
		Question:      q.Prompt,
		Choices:       q.Choices,
		CorrectAnswer: q.Answer,
	})
	if err != nil {
		return "", fmt.Errorf("explanation service: %w", err)
	}
	return resp.Explanation, nil
}
