package notifications

import (
	"context"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/logging"
)

// Service pushes notifications (honoring prefs) and serves the user's feed.
// Push failures are logged and swallowed: a notification must never fail the
// request that produced it.
type Service struct {
	repo Repository
	log  logging.Logger
}

func NewService(repo Repository, log logging.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// NotifyDirectMessage records a DM notification unless the recipient turned
// DMs off.
func (s *Service) NotifyDirectMessage(ctx context.Context, to, from, preview string) {
	s.push(ctx, to, KindDirectMessage, func(p *Prefs) bool { return p.DirectMessages },
		map[string]string{"from": from, "message": from + ": " + preview})
}

// NotifyCommunity records a community notification unless turned off.
func (s *Service) NotifyCommunity(ctx context.Context, to, author, title string) {
	s.push(ctx, to, KindCommunity, func(p *Prefs) bool { return p.Community },
		map[string]string{"author": author, "title": title, "message": author + " posted: " + title})
}

// NotifySystem records a system notification unless turned off.
func (s *Service) NotifySystem(ctx context.Context, to, message string) {
	s.push(ctx, to, KindSystem, func(p *Prefs) bool { return p.System },
		map[string]string{"message": message})
}

func (s *Service) push(ctx context.Context, to, kind string, enabled func(*Prefs) bool, payload map[string]string) {
	prefs, err := s.repo.GetPrefs(ctx, to)
	if err != nil {
		s.log.Warn(ctx, "prefs lookup failed, dropping notification", "user", to, "kind", kind, "error", err)
		return
	}
	if !enabled(prefs) {
		return
	}
	if _, err := s.repo.Create(ctx, &Notification{Username: to, Kind: kind, Payload: payload}); err != nil {
		s.log.Warn(ctx, "failed to store notification", "user", to, "kind", kind, "error", err)
	}
}

// List returns the user's feed, newest first.
func (s *Service) List(ctx context.Context, username string) ([]api.NotificationItem, error) {
	rows, err := s.repo.ListForUser(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make([]api.NotificationItem, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Item())
	}
	return out, nil
}

// MarkRead stamps one of the user's notifications.
func (s *Service) MarkRead(ctx context.Context, username, id string) error {
	return s.repo.MarkRead(ctx, id, username)
}

// MarkAllRead stamps the user's whole feed.
func (s *Service) MarkAllRead(ctx context.Context, username string) error {
	return s.repo.MarkAllRead(ctx, username)
}

// Prefs returns the user's delivery preferences.
func (s *Service) Prefs(ctx context.Context, username string) (api.NotificationPrefs, error) {
	p, err := s.repo.GetPrefs(ctx, username)
	if err != nil {
		return api.NotificationPrefs{}, err
	}
	return api.NotificationPrefs{
		DirectMessages: p.DirectMessages,
		Community:      p.Community,
		System:         p.System,
	}, nil
}

// SetPrefs stores the user's delivery preferences.
func (s *Service) SetPrefs(ctx context.Context, username string, prefs api.NotificationPrefs) error {
	return s.repo.SetPrefs(ctx, &Prefs{
		Username:       username,
		DirectMessages: prefs.DirectMessages,
		Community:      prefs.Community,
		System:         prefs.System,
	})
}
