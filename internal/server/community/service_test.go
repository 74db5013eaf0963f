package community

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/users"
)

type fakeRepo struct {
	posts    map[string]*Post
	order    []string
	likes    map[string]map[string]bool // postID -> username
	comments map[string][]Comment
	reports  map[string]*Report
	nextID   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		posts:    make(map[string]*Post),
		likes:    make(map[string]map[string]bool),
		comments: make(map[string][]Comment),
		reports:  make(map[string]*Report),
	}
}

func (r *fakeRepo) id(prefix string) string {
	r.nextID++
	return fmt.Sprintf("%s%d", prefix, r.nextID)
}

func (r *fakeRepo) CreatePost(ctx context.Context, p *Post) (*Post, error) {
	p.ID = r.id("p")
	p.CreatedAt = time.Now()
	r.posts[p.ID] = p
	r.order = append(r.order, p.ID)
	return p, nil
}

func (r *fakeRepo) view(id, viewer string) *PostView {
	p := r.posts[id]
	v := &PostView{Post: *p}
	for u := range r.likes[id] {
		v.Likes++
		if u == viewer {
			v.LikedByMe = true
		}
	}
	v.CommentCount = len(r.comments[id])
	return v
}

func (r *fakeRepo) ListPosts(ctx context.Context, viewer string) ([]PostView, error) {
	out := make([]PostView, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, *r.view(r.order[i], viewer))
	}
	return out, nil
}

func (r *fakeRepo) GetPost(ctx context.Context, id, viewer string) (*PostView, error) {
	if _, ok := r.posts[id]; !ok {
		return nil, common.ErrNotFound
	}
	return r.view(id, viewer), nil
}

func (r *fakeRepo) ToggleLike(ctx context.Context, postID, username string) (bool, error) {
	if r.likes[postID] == nil {
		r.likes[postID] = make(map[string]bool)
	}
	if r.likes[postID][username] {
		delete(r.likes[postID], username)
		return false, nil
	}
	r.likes[postID][username] = true
	return true, nil
}

func (r *fakeRepo) ListComments(ctx context.Context, postID string) ([]Comment, error) {
	return r.comments[postID], nil
}

func (r *fakeRepo) AddComment(ctx context.Context, c *Comment) (*Comment, error) {
	c.ID = r.id("c")
	c.CreatedAt = time.Now()
	r.comments[c.PostID] = append(r.comments[c.PostID], *c)
	return c, nil
}

func (r *fakeRepo) CreateReport(ctx context.Context, rep *Report) (*Report, error) {
	rep.ID = r.id("r")
	rep.CreatedAt = time.Now()
	r.reports[rep.ID] = rep
	return rep, nil
}

func (r *fakeRepo) ListOpenReports(ctx context.Context) ([]Report, error) {
	var out []Report
	for _, rep := range r.reports {
		if rep.ResolvedAt == nil {
			cp := *rep
			cp.PostTitle = r.posts[rep.PostID].Title
			out = append(out, cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ResolveReport(ctx context.Context, id, resolver string) error {
	rep, ok := r.reports[id]
	if !ok || rep.ResolvedAt != nil {
		return common.ErrNotFound
	}
	now := time.Now()
	rep.ResolvedAt = &now
	rep.ResolvedBy = resolver
	return nil
}

type fakeUsers struct{ accounts []users.User }

func (f *fakeUsers) List(ctx context.Context) ([]users.User, error) { return f.accounts, nil }

type fakeEvents struct{ kinds []api.EventKind }

func (f *fakeEvents) Emit(kind api.EventKind, username string, role api.Role) {
	f.kinds = append(f.kinds, kind)
}

type fakeNotifier struct{ notes []string }

func (f *fakeNotifier) NotifyCommunity(ctx context.Context, to, author, title string) {
	f.notes = append(f.notes, to)
}

func newTestService() (*Service, *fakeRepo, *fakeEvents, *fakeNotifier) {
	repo := newFakeRepo()
	events := &fakeEvents{}
	notifier := &fakeNotifier{}
	accounts := &fakeUsers{accounts: []users.User{
		{Username: "alice", State: api.UserActive},
		{Username: "bob", State: api.UserActive},
		{Username: "carol", State: api.UserPending},
	}}
	svc := NewService(repo, accounts, events, notifier, logging.New(io.Discard, "error", "text"))
	return svc, repo, events, notifier
}

func TestCreate_EmitsEventAndFansOut(t *testing.T) {
	svc, _, events, notifier := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, "alice", api.RoleMember, api.CreatePostRequest{
		Title: "study group", Body: "tonight at 8", Tags: []string{"math"},
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", post.Author)
	assert.Equal(t, []string{"math"}, post.Tags)

	assert.Equal(t, []api.EventKind{api.EventCommunityPost}, events.kinds)
	// author excluded, pending accounts excluded
	assert.Equal(t, []string{"bob"}, notifier.notes)
}

func TestToggleLike(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, "alice", api.RoleMember, api.CreatePostRequest{Title: "t", Body: "b"})
	require.NoError(t, err)

	liked, err := svc.ToggleLike(ctx, "bob", post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, liked.Likes)
	assert.True(t, liked.LikedByMe)

	unliked, err := svc.ToggleLike(ctx, "bob", post.ID)
	require.NoError(t, err)
	assert.Zero(t, unliked.Likes)
	assert.False(t, unliked.LikedByMe)

	_, err = svc.ToggleLike(ctx, "bob", "missing")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCommentsFlow(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, "alice", api.RoleMember, api.CreatePostRequest{Title: "t", Body: "b"})
	require.NoError(t, err)

	_, err = svc.AddComment(ctx, "bob", post.ID, "nice")
	require.NoError(t, err)
	_, err = svc.AddComment(ctx, "alice", post.ID, "thanks")
	require.NoError(t, err)

	comments, err := svc.Comments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "nice", comments[0].Body)

	_, err = svc.AddComment(ctx, "bob", "missing", "x")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestReportsQueue(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	post, err := svc.Create(ctx, "alice", api.RoleMember, api.CreatePostRequest{Title: "spam?", Body: "b"})
	require.NoError(t, err)

	require.NoError(t, svc.Report(ctx, "bob", post.ID, "looks like spam"))

	open, err := svc.OpenReports(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "spam?", open[0].PostTitle)
	assert.Equal(t, "bob", open[0].Reporter)

	reportID := open[0].ID
	require.NoError(t, svc.Resolve(ctx, "root", reportID))

	open, err = svc.OpenReports(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	// resolving twice fails
	require.ErrorIs(t, svc.Resolve(ctx, "root", reportID), common.ErrNotFound)
}
