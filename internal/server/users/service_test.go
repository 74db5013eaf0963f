package users

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/cryptox"
	"github.com/studyhall/studyhall/internal/logging"
)

type fakeRepo struct {
	users map[string]*User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[string]*User)}
}

func (r *fakeRepo) Create(ctx context.Context, u *User) (*User, error) {
	u.ID = "id-" + u.Username
	u.CreatedAt = time.Now()
	r.users[u.Username] = u
	return u, nil
}

func (r *fakeRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	u, ok := r.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]User, error) {
	out := make([]User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeRepo) UpdateState(ctx context.Context, username, state string) error {
	u, ok := r.users[username]
	if !ok {
		return common.ErrNotFound
	}
	u.State = state
	return nil
}

func (r *fakeRepo) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	u, ok := r.users[username]
	if !ok {
		return common.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *fakeRepo) UpdateLastLogin(ctx context.Context, username string) error {
	u, ok := r.users[username]
	if !ok {
		return common.ErrNotFound
	}
	now := time.Now()
	u.LastLoginAt = &now
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, username string) error {
	if _, ok := r.users[username]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, username)
	return nil
}

type fakeMailer struct {
	sent []string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.sent = append(m.sent, to+": "+subject)
	return nil
}

func newTestService() (*Service, *fakeRepo, *fakeMailer) {
	repo := newFakeRepo()
	mailer := &fakeMailer{}
	log := logging.New(io.Discard, "error", "text")
	return NewService(repo, mailer, log), repo, mailer
}

func TestSignup_CreatesPendingAccount(t *testing.T) {
	svc, repo, mailer := newTestService()
	ctx := context.Background()

	user, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, api.RoleMember, user.Role)
	assert.Equal(t, api.UserPending, user.State)
	assert.NotEqual(t, "s3cret", user.PasswordHash)
	require.Len(t, mailer.sent, 1)

	ok, err := cryptox.VerifyPassword("s3cret", repo.users["alice"].PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignup_DuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "alice", "other@example.com", "pw")
	require.ErrorIs(t, err, common.ErrAlreadyExists)
}

func TestAuthenticate(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "a@example.com", "s3cret")
	require.NoError(t, err)

	// pending accounts cannot log in even with good credentials
	_, err = svc.Authenticate(ctx, "alice", "s3cret")
	require.ErrorIs(t, err, common.ErrAccountPending)

	repo.users["alice"].State = api.UserActive

	_, err = svc.Authenticate(ctx, "alice", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	user, err := svc.Authenticate(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	require.NotNil(t, repo.users["alice"].LastLoginAt)

	// unknown users map onto the same sentinel as a bad password
	_, err = svc.Authenticate(ctx, "nobody", "pw")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestApprove(t *testing.T) {
	svc, repo, mailer := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)
	mailer.sent = nil

	user, err := svc.Approve(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, api.UserActive, user.State)
	assert.Equal(t, api.UserActive, repo.users["alice"].State)
	require.Len(t, mailer.sent, 1)

	// approving twice is a no-op, no second email
	_, err = svc.Approve(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, mailer.sent, 1)

	_, err = svc.Approve(ctx, "nobody")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestSeed(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx))

	admin, err := svc.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, api.RoleAdmin, admin.Role)
	assert.Equal(t, api.UserActive, admin.State)

	member, err := svc.Get(ctx, "member")
	require.NoError(t, err)
	assert.Equal(t, api.RoleMember, member.Role)

	ok, err := cryptox.VerifyPassword("Admin@1234", admin.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	// a populated table is left alone
	require.NoError(t, svc.Seed(ctx))
	assert.Len(t, repo.users, 2)
}

func TestSetPassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "alice@example.com", "old-password")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, "alice")
	require.NoError(t, err)

	require.NoError(t, svc.SetPassword(ctx, "alice", "new-password"))

	_, err = svc.Authenticate(ctx, "alice", "old-password")
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice", "new-password")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetPassword(ctx, "nobody", "x"), common.ErrNotFound)
}
