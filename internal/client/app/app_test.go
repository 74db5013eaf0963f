package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/client/config"
	"github.com/studyhall/studyhall/internal/common"
)

func newTestApp(t *testing.T, handler http.Handler) *App {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var cfg config.Config
	cfg.LoadDefaults()
	cfg.ServerAddr = srv.URL
	cfg.DataDir = t.TempDir()

	a, err := New(&cfg)
	require.NoError(t, err)
	t.Cleanup(a.Shutdown)
	return a
}

func authMux(role api.Role) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(api.LoginResponse{
			Token: "tok-1", Username: req.Username, Role: role,
		})
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {})
	return mux
}

func TestLogin_MemberSchedulesMemberDomains(t *testing.T) {
	a := newTestApp(t, authMux(api.RoleMember))

	require.NoError(t, a.Login(context.Background(), "alice", "secret"))

	s := a.Sessions.Current()
	require.NotNil(t, s)
	assert.Equal(t, "alice", s.Username)
	assert.False(t, s.IsAdmin())

	assert.True(t, a.sched.Scheduled(DomainConversations))
	assert.True(t, a.sched.Scheduled(DomainNotifications))
	assert.False(t, a.sched.Scheduled(DomainRoster))
	assert.False(t, a.sched.Scheduled(DomainEvents))
	assert.False(t, a.sched.Scheduled(DomainReports))

	require.NotNil(t, a.Ledger())
}

func TestLogin_AdminSchedulesPresenceDomains(t *testing.T) {
	a := newTestApp(t, authMux(api.RoleAdmin))

	require.NoError(t, a.Login(context.Background(), "root", "secret"))

	assert.True(t, a.sched.Scheduled(DomainRoster))
	assert.True(t, a.sched.Scheduled(DomainEvents))
	assert.True(t, a.sched.Scheduled(DomainReports))
	assert.True(t, a.sched.Scheduled(DomainConversations))
	assert.True(t, a.sched.Scheduled(DomainNotifications))
}

func TestLogin_BadCredentials(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	})
	a := newTestApp(t, mux)

	err := a.Login(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)
	assert.Nil(t, a.Sessions.Current())
	assert.False(t, a.sched.Scheduled(DomainConversations))
}

func TestLogout_TearsDownEverything(t *testing.T) {
	a := newTestApp(t, authMux(api.RoleAdmin))
	require.NoError(t, a.Login(context.Background(), "root", "secret"))

	a.Logout(context.Background())

	assert.Nil(t, a.Sessions.Current())
	assert.Nil(t, a.Ledger())
	for _, d := range []string{DomainRoster, DomainEvents, DomainConversations, DomainMessages, DomainNotifications, DomainReports} {
		assert.False(t, a.sched.Scheduled(d), d)
	}
	assert.Empty(t, a.Chat.Conversations())
	assert.Zero(t, a.Notifs.UnreadCount())
}

func TestSelectConversation_StartsMessagePolling(t *testing.T) {
	mux := authMux(api.RoleMember)
	mux.HandleFunc("POST /api/chat/conversations/{id}/read", func(w http.ResponseWriter, r *http.Request) {})
	a := newTestApp(t, mux)
	require.NoError(t, a.Login(context.Background(), "alice", "secret"))

	a.Chat.ApplyConversations([]api.ConversationSummary{{ID: "c1"}})
	a.SelectConversation(context.Background(), "c1")

	assert.Equal(t, "c1", a.Chat.SelectedID())
	assert.True(t, a.sched.Scheduled(DomainMessages))

	a.CloseConversation()
	assert.Equal(t, "", a.Chat.SelectedID())
	assert.False(t, a.sched.Scheduled(DomainMessages))
}

func TestConnectivityLoss_PausesPolling(t *testing.T) {
	a := newTestApp(t, authMux(api.RoleMember))
	require.NoError(t, a.Login(context.Background(), "alice", "secret"))
	require.True(t, a.sched.Scheduled(DomainConversations))

	a.onConnectivity(false)
	assert.False(t, a.sched.Scheduled(DomainConversations))
	assert.False(t, a.sched.Scheduled(DomainNotifications))

	a.onConnectivity(true)
	assert.True(t, a.sched.Scheduled(DomainConversations))
	assert.True(t, a.sched.Scheduled(DomainNotifications))
}

func TestNotifStore_UnreadCount(t *testing.T) {
	s := NewNotifStore()
	t0 := time.Now()
	now := &t0
	s.ApplyItems([]api.NotificationItem{
		{ID: "n1"},
		{ID: "n2", ReadAt: now},
		{ID: "n3"},
	})
	assert.Equal(t, 2, s.UnreadCount())

	s.Reset()
	assert.Zero(t, s.UnreadCount())
	assert.Empty(t, s.Items())
}
