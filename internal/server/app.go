// Package server wires the StudyHall server: database and migrations,
// domain services, sessions, presence, metrics, and the HTTP surface.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/chat"
	"github.com/studyhall/studyhall/internal/server/community"
	"github.com/studyhall/studyhall/internal/server/config"
	"github.com/studyhall/studyhall/internal/server/email"
	"github.com/studyhall/studyhall/internal/server/flashcards"
	"github.com/studyhall/studyhall/internal/server/httpapi"
	"github.com/studyhall/studyhall/internal/server/metrics"
	"github.com/studyhall/studyhall/internal/server/migrations"
	"github.com/studyhall/studyhall/internal/server/notifications"
	"github.com/studyhall/studyhall/internal/server/presence"
	"github.com/studyhall/studyhall/internal/server/profiles"
	"github.com/studyhall/studyhall/internal/server/sessions"
	"github.com/studyhall/studyhall/internal/server/users"
)

const (
	purgeInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// App is the assembled server.
type App struct {
	cfg *config.Config
	log logging.Logger
	db  *sql.DB

	sessions *sessions.Store
	users    *users.Service
	http     *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	db, err := openDB(context.Background(), cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	sessionStore := sessions.NewStore(cfg.SessionTTL)

	var mailer email.Mailer
	if cfg.SendGridKey != "" {
		mailer = email.NewSendGridMailer(cfg.SendGridKey, cfg.EmailFrom)
	} else {
		mailer = email.NewConsoleMailer(log)
	}

	userService := users.NewService(users.NewPostgresRepository(db), mailer, log)

	m := metrics.New(func() float64 { return float64(sessionStore.Count()) })

	presenceService := presence.NewService(presence.NewRing(), sessionStore, userService, cfg.OnlineWindow)
	presenceService.SetOnEvent(func(kind api.EventKind) { m.ObservePresenceEvent(string(kind)) })

	notifService := notifications.NewService(notifications.NewPostgresRepository(db), log)
	chatService := chat.NewService(chat.NewPostgresRepository(db), userService, notifService, log)
	communityService := community.NewService(community.NewPostgresRepository(db),
		userService, presenceService, notifService, log)
	profileService := profiles.NewService(profiles.NewPostgresRepository(db),
		userService, userService, mailer, log)
	flashcardService := flashcards.NewService(flashcards.NewPostgresRepository(db),
		flashcards.NewS3BlobStore(cfg),
		flashcards.NewParserClient(cfg.ParserAddr),
		flashcards.NewExplainerClient(cfg.ExplainerAddr),
		log)

	httpServer, err := httpapi.New(cfg, log, httpapi.Deps{
		Sessions:      sessionStore,
		Users:         userService,
		Presence:      presenceService,
		Chat:          chatService,
		Notifications: notifService,
		Community:     communityService,
		Profiles:      profileService,
		Flashcards:    flashcardService,
		Metrics:       m,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		cfg:      cfg,
		log:      log,
		db:       db,
		sessions: sessionStore,
		users:    userService,
		http:     httpServer,
	}, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setting goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// Run serves until ctx is cancelled or a signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := a.users.Seed(ctx); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}

	go a.sessions.RunPurge(ctx, purgeInterval)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info(ctx, "server listening", "addr", a.cfg.EndpointAddr)
		errCh <- a.http.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.Info(context.Background(), "shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.log.Error(shutdownCtx, "http shutdown failed", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.log.Error(shutdownCtx, "closing database failed", "error", err)
	}
	return nil
}
