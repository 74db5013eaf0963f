package community

import (
	"context"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/users"
)

// EventEmitter feeds the admin activity feed.
type EventEmitter interface {
	Emit(kind api.EventKind, username string, role api.Role)
}

// Notifier fans a new post out to interested users.
type Notifier interface {
	NotifyCommunity(ctx context.Context, to, author, title string)
}

// UserSource lists accounts for post fan-out.
type UserSource interface {
	List(ctx context.Context) ([]users.User, error)
}

// Service implements the community flows.
type Service struct {
	repo     Repository
	accounts UserSource
	events   EventEmitter
	notifier Notifier
	log      logging.Logger
}

func NewService(repo Repository, accounts UserSource, events EventEmitter, notifier Notifier, log logging.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, events: events, notifier: notifier, log: log}
}

// List returns the feed, newest first, with the viewer's like state.
func (s *Service) List(ctx context.Context, viewer string) ([]api.Post, error) {
	views, err := s.repo.ListPosts(ctx, viewer)
	if err != nil {
		return nil, err
	}
	out := make([]api.Post, 0, len(views))
	for i := range views {
		out = append(out, views[i].Wire())
	}
	return out, nil
}

// Create stores a post, emits the activity event, and notifies every other
// active user whose community pref is on.
func (s *Service) Create(ctx context.Context, author string, authorRole api.Role, req api.CreatePostRequest) (api.Post, error) {
	post, err := s.repo.CreatePost(ctx, &Post{
		Author:        author,
		Title:         req.Title,
		Body:          req.Body,
		Tags:          req.Tags,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		return api.Post{}, err
	}

	if s.events != nil {
		s.events.Emit(api.EventCommunityPost, author, authorRole)
	}
	if s.notifier != nil {
		s.fanOut(ctx, author, post.Title)
	}

	view, err := s.repo.GetPost(ctx, post.ID, author)
	if err != nil {
		return api.Post{}, err
	}
	return view.Wire(), nil
}

func (s *Service) fanOut(ctx context.Context, author, title string) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		s.log.Warn(ctx, "post fan-out skipped", "error", err)
		return
	}
	for _, u := range accounts {
		if u.Username == author || u.State != api.UserActive {
			continue
		}
		s.notifier.NotifyCommunity(ctx, u.Username, author, title)
	}
}

// ToggleLike flips the viewer's like and returns the refreshed post.
func (s *Service) ToggleLike(ctx context.Context, viewer, postID string) (api.Post, error) {
	if _, err := s.repo.GetPost(ctx, postID, viewer); err != nil {
		return api.Post{}, err
	}
	if _, err := s.repo.ToggleLike(ctx, postID, viewer); err != nil {
		return api.Post{}, err
	}
	view, err := s.repo.GetPost(ctx, postID, viewer)
	if err != nil {
		return api.Post{}, err
	}
	return view.Wire(), nil
}

// Comments returns a post's thread, oldest first.
func (s *Service) Comments(ctx context.Context, postID string) ([]api.Comment, error) {
	if _, err := s.repo.GetPost(ctx, postID, ""); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	out := make([]api.Comment, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Wire())
	}
	return out, nil
}

// AddComment appends to a post's thread.
func (s *Service) AddComment(ctx context.Context, author, postID, body string) (api.Comment, error) {
	if _, err := s.repo.GetPost(ctx, postID, ""); err != nil {
		return api.Comment{}, err
	}
	c, err := s.repo.AddComment(ctx, &Comment{PostID: postID, Author: author, Body: body})
	if err != nil {
		return api.Comment{}, err
	}
	return c.Wire(), nil
}

// Report files a moderation report against a post.
func (s *Service) Report(ctx context.Context, reporter, postID, reason string) error {
	if _, err := s.repo.GetPost(ctx, postID, ""); err != nil {
		return err
	}
	_, err := s.repo.CreateReport(ctx, &Report{PostID: postID, Reporter: reporter, Reason: reason})
	return err
}

// OpenReports returns the unresolved queue, newest first. Admin only, which
// the HTTP layer enforces.
func (s *Service) OpenReports(ctx context.Context) ([]api.Report, error) {
	rows, err := s.repo.ListOpenReports(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]api.Report, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].Wire())
	}
	return out, nil
}

// Resolve closes one report.
func (s *Service) Resolve(ctx context.Context, resolver, reportID string) error {
	return s.repo.ResolveReport(ctx, reportID, resolver)
}
