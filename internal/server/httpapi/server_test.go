package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/config"
	"github.com/studyhall/studyhall/internal/server/sessions"
	"github.com/studyhall/studyhall/internal/server/users"
)

type fakeUsers struct {
	accounts map[string]*users.User
	approved []string
}

func (f *fakeUsers) Signup(ctx context.Context, username, email, password string) (*users.User, error) {
	if _, ok := f.accounts[username]; ok {
		return nil, common.ErrAlreadyExists
	}
	u := &users.User{Username: username, Email: email, Role: api.RoleMember, State: api.UserPending}
	f.accounts[username] = u
	return u, nil
}

func (f *fakeUsers) Authenticate(ctx context.Context, username, password string) (*users.User, error) {
	u, ok := f.accounts[username]
	if !ok || password != "correct horse" {
		return nil, common.ErrInvalidCredentials
	}
	if u.State != api.UserActive {
		return nil, common.ErrAccountPending
	}
	return u, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]users.User, error) {
	var out []users.User
	for _, u := range f.accounts {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUsers) Approve(ctx context.Context, username string) (*users.User, error) {
	u, ok := f.accounts[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	u.State = api.UserActive
	f.approved = append(f.approved, username)
	return u, nil
}

func (f *fakeUsers) Delete(ctx context.Context, username string) error {
	if _, ok := f.accounts[username]; !ok {
		return common.ErrNotFound
	}
	delete(f.accounts, username)
	return nil
}

type fakePresence struct {
	kinds  []api.EventKind
	events []api.PresenceEvent
}

func (f *fakePresence) Emit(kind api.EventKind, username string, role api.Role) {
	f.kinds = append(f.kinds, kind)
}
func (f *fakePresence) Events(limit int) []api.PresenceEvent { return f.events }
func (f *fakePresence) Overview(ctx context.Context) (api.PresenceOverview, error) {
	return api.PresenceOverview{}, nil
}

type fakeChat struct {
	sent []string
}

func (f *fakeChat) Open(ctx context.Context, me, peer string) (api.ConversationSummary, error) {
	if me == peer {
		return api.ConversationSummary{}, common.ErrValidation
	}
	return api.ConversationSummary{ID: "c1"}, nil
}
func (f *fakeChat) List(ctx context.Context, me string) ([]api.ConversationSummary, error) {
	return []api.ConversationSummary{{ID: "c1"}}, nil
}
func (f *fakeChat) Messages(ctx context.Context, me, id string) ([]api.Message, error) {
	if id != "c1" {
		return nil, common.ErrNotFound
	}
	return nil, nil
}
func (f *fakeChat) Send(ctx context.Context, me, id, body string) (api.Message, error) {
	f.sent = append(f.sent, me+": "+body)
	return api.Message{ID: "m1", ConversationID: id, Body: body}, nil
}
func (f *fakeChat) MarkRead(ctx context.Context, me, id string) error { return nil }
func (f *fakeChat) Delete(ctx context.Context, me, id string) error   { return nil }

type fakeNotifications struct {
	prefs map[string]api.NotificationPrefs
}

func (f *fakeNotifications) List(ctx context.Context, username string) ([]api.NotificationItem, error) {
	return nil, nil
}
func (f *fakeNotifications) MarkRead(ctx context.Context, username, id string) error {
	return common.ErrNotFound
}
func (f *fakeNotifications) MarkAllRead(ctx context.Context, username string) error { return nil }
func (f *fakeNotifications) Prefs(ctx context.Context, username string) (api.NotificationPrefs, error) {
	if p, ok := f.prefs[username]; ok {
		return p, nil
	}
	return api.NotificationPrefs{DirectMessages: true, Community: true, System: true}, nil
}
func (f *fakeNotifications) SetPrefs(ctx context.Context, username string, prefs api.NotificationPrefs) error {
	f.prefs[username] = prefs
	return nil
}

type fakeCommunity struct{}

func (fakeCommunity) List(ctx context.Context, viewer string) ([]api.Post, error) { return nil, nil }
func (fakeCommunity) Create(ctx context.Context, author string, role api.Role, req api.CreatePostRequest) (api.Post, error) {
	return api.Post{ID: "p1", Author: author, Title: req.Title}, nil
}
func (fakeCommunity) ToggleLike(ctx context.Context, viewer, postID string) (api.Post, error) {
	return api.Post{}, common.ErrNotFound
}
func (fakeCommunity) Comments(ctx context.Context, postID string) ([]api.Comment, error) {
	return nil, nil
}
func (fakeCommunity) AddComment(ctx context.Context, author, postID, body string) (api.Comment, error) {
	return api.Comment{}, nil
}
func (fakeCommunity) Report(ctx context.Context, reporter, postID, reason string) error { return nil }
func (fakeCommunity) OpenReports(ctx context.Context) ([]api.Report, error)             { return nil, nil }
func (fakeCommunity) Resolve(ctx context.Context, resolver, id string) error            { return nil }

type fakeProfiles struct {
	profile api.UserProfile
	resets  []string
}

func (f *fakeProfiles) Get(ctx context.Context, username string) (api.UserProfile, error) {
	out := f.profile
	out.Username = username
	return out, nil
}
func (f *fakeProfiles) Update(ctx context.Context, username string, req api.UpdateProfileRequest) (api.UserProfile, error) {
	if req.DisplayName != nil {
		f.profile.DisplayName = *req.DisplayName
	}
	return f.Get(ctx, username)
}
func (f *fakeProfiles) RequestEmailCode(ctx context.Context, username, email string) error {
	return nil
}
func (f *fakeProfiles) VerifyEmail(ctx context.Context, username, code string) error {
	if code != "424242" {
		return common.ErrValidation
	}
	return nil
}
func (f *fakeProfiles) RequestPhoneCode(ctx context.Context, username, phone string) error {
	return nil
}
func (f *fakeProfiles) VerifyPhone(ctx context.Context, username, code string) error { return nil }
func (f *fakeProfiles) RequestPasswordReset(ctx context.Context, email string) error {
	if email != "alice@example.com" {
		return common.ErrNotFound
	}
	return nil
}
func (f *fakeProfiles) VerifyPasswordReset(ctx context.Context, email, code string) error {
	if code != "424242" {
		return common.ErrValidation
	}
	return nil
}
func (f *fakeProfiles) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if code != "424242" {
		return common.ErrValidation
	}
	f.resets = append(f.resets, email)
	return nil
}

type fakeFlashcards struct{}

func (fakeFlashcards) List(ctx context.Context, owner string) ([]api.Flashcard, error) {
	return nil, nil
}
func (fakeFlashcards) CreateUploadSlot(ctx context.Context) (api.UploadSlot, error) {
	return api.UploadSlot{Key: "decks/k.pdf", URL: "http://signed"}, nil
}
func (fakeFlashcards) Create(ctx context.Context, owner string, req api.CreateFlashcardRequest) (api.Flashcard, error) {
	return api.Flashcard{ID: "d1", Title: req.Title, Status: api.DeckProcessing}, nil
}
func (fakeFlashcards) Get(ctx context.Context, owner, id string) (api.FlashcardDetail, error) {
	return api.FlashcardDetail{}, common.ErrNotFound
}
func (fakeFlashcards) Delete(ctx context.Context, owner, id string) error { return nil }
func (fakeFlashcards) Explain(ctx context.Context, req api.ExplainRequest) (api.ExplainResponse, error) {
	return api.ExplainResponse{Explanation: "because"}, nil
}

type testEnv struct {
	server   *Server
	sessions *sessions.Store
	users    *fakeUsers
	presence *fakePresence
	chat     *fakeChat
	profiles *fakeProfiles
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	store := sessions.NewStore(time.Hour)
	usersFake := &fakeUsers{accounts: map[string]*users.User{
		"alice": {Username: "alice", Role: api.RoleMember, State: api.UserActive},
		"root":  {Username: "root", Role: api.RoleAdmin, State: api.UserActive},
	}}
	presenceFake := &fakePresence{}
	chatFake := &fakeChat{}
	profilesFake := &fakeProfiles{}

	cfg := &config.Config{
		EndpointAddr:       ":0",
		SessionTTL:         time.Hour,
		LoginRatePerMinute: 5,
		LoginBurst:         3,
	}

	srv, err := New(cfg, logging.New(io.Discard, "error", "text"), Deps{
		Sessions:      store,
		Users:         usersFake,
		Presence:      presenceFake,
		Chat:          chatFake,
		Notifications: &fakeNotifications{prefs: make(map[string]api.NotificationPrefs)},
		Community:     fakeCommunity{},
		Profiles:      profilesFake,
		Flashcards:    fakeFlashcards{},
	})
	require.NoError(t, err)

	return &testEnv{server: srv, sessions: store, users: usersFake,
		presence: presenceFake, chat: chatFake, profiles: profilesFake}
}

func (e *testEnv) request(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthScheme+" "+token)
	}

	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)

	if out != nil && rec.Code < 400 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func (e *testEnv) loginAs(t *testing.T, username string) string {
	t.Helper()
	var resp api.LoginResponse
	code := e.request(t, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: username, Password: "correct horse"}, &resp)
	require.Equal(t, http.StatusOK, code)
	return resp.Token
}

func TestLogin(t *testing.T) {
	env := newTestServer(t)

	var resp api.LoginResponse
	code := env.request(t, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "alice", Password: "correct horse"}, &resp)
	require.Equal(t, http.StatusOK, code)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, api.RoleMember, resp.Role)
	assert.Equal(t, []api.EventKind{api.EventLogin}, env.presence.kinds)

	_, ok := env.sessions.Get(resp.Token)
	assert.True(t, ok)
}

func TestLogin_BadCredentials(t *testing.T) {
	env := newTestServer(t)

	code := env.request(t, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "alice", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Empty(t, env.presence.kinds)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestServer(t)

	for i := 0; i < 3; i++ {
		code := env.request(t, http.MethodPost, "/api/auth/login", "",
			api.LoginRequest{Username: "alice", Password: "wrong"}, nil)
		require.Equal(t, http.StatusUnauthorized, code)
	}
	code := env.request(t, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "alice", Password: "correct horse"}, nil)
	assert.Equal(t, http.StatusTooManyRequests, code)
}

func TestSignup_Validation(t *testing.T) {
	env := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup",
		bytes.NewReader([]byte(`{"username":"x","email":"nope","password":"short"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var payload struct {
		Message string           `json:"message"`
		Fields  []api.FieldError `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "validation failed", payload.Message)
	assert.Len(t, payload.Fields, 3)
}

func TestSignup_ApproveEmitsEventAndConflicts(t *testing.T) {
	env := newTestServer(t)

	code := env.request(t, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "carol", Email: "carol@example.com", Password: "longenough"}, nil)
	require.Equal(t, http.StatusCreated, code)
	assert.Empty(t, env.presence.kinds)

	code = env.request(t, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "carol", Email: "carol@example.com", Password: "longenough"}, nil)
	assert.Equal(t, http.StatusConflict, code)

	admin := env.loginAs(t, "root")
	var approved api.UserAccount
	code = env.request(t, http.MethodPost, "/api/users/carol/approve", admin, nil, &approved)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, api.UserActive, approved.State)
	assert.Equal(t, []string{"carol"}, env.users.approved)
	assert.Contains(t, env.presence.kinds, api.EventSignup)
}

func TestAuthRequired(t *testing.T) {
	env := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized,
		env.request(t, http.MethodGet, "/api/chat/conversations", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized,
		env.request(t, http.MethodGet, "/api/chat/conversations", "bogus-token", nil, nil))
}

func TestAdminGuard(t *testing.T) {
	env := newTestServer(t)

	member := env.loginAs(t, "alice")
	assert.Equal(t, http.StatusForbidden,
		env.request(t, http.MethodGet, "/api/presence/overview", member, nil, nil))
	assert.Equal(t, http.StatusForbidden,
		env.request(t, http.MethodGet, "/api/community/reports", member, nil, nil))

	admin := env.loginAs(t, "root")
	assert.Equal(t, http.StatusOK,
		env.request(t, http.MethodGet, "/api/presence/overview", admin, nil, nil))
	assert.Equal(t, http.StatusOK,
		env.request(t, http.MethodGet, "/api/community/reports", admin, nil, nil))
}

func TestLogout(t *testing.T) {
	env := newTestServer(t)

	token := env.loginAs(t, "alice")
	code := env.request(t, http.MethodPost, "/api/auth/logout", token, nil, nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, []api.EventKind{api.EventLogin, api.EventLogout}, env.presence.kinds)

	assert.Equal(t, http.StatusUnauthorized,
		env.request(t, http.MethodGet, "/api/auth/session", token, nil, nil))
}

func TestSessionInfo(t *testing.T) {
	env := newTestServer(t)

	token := env.loginAs(t, "alice")
	var info api.SessionInfo
	code := env.request(t, http.MethodGet, "/api/auth/session", token, nil, &info)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", info.Username)
	assert.Equal(t, api.RoleMember, info.Role)
}

func TestSendMessage(t *testing.T) {
	env := newTestServer(t)

	token := env.loginAs(t, "alice")
	var msg api.Message
	code := env.request(t, http.MethodPost, "/api/chat/conversations/c1/messages", token,
		api.SendMessageRequest{Body: "hello"}, &msg)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "hello", msg.Body)
	assert.Equal(t, []string{"alice: hello"}, env.chat.sent)
}

func TestErrorMapping(t *testing.T) {
	env := newTestServer(t)
	token := env.loginAs(t, "alice")

	// domain NotFound -> 404
	assert.Equal(t, http.StatusNotFound,
		env.request(t, http.MethodGet, "/api/chat/conversations/unknown/messages", token, nil, nil))
	assert.Equal(t, http.StatusNotFound,
		env.request(t, http.MethodPost, "/api/notifications/n1/read", token, nil, nil))

	// domain validation -> 400
	code := env.request(t, http.MethodPost, "/api/chat/conversations", token,
		api.OpenConversationRequest{Participant: "alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNotificationPrefsRoundTrip(t *testing.T) {
	env := newTestServer(t)
	token := env.loginAs(t, "alice")

	var prefs api.NotificationPrefs
	code := env.request(t, http.MethodGet, "/api/notifications/prefs", token, nil, &prefs)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, prefs.DirectMessages)

	prefs.Community = false
	code = env.request(t, http.MethodPut, "/api/notifications/prefs", token, prefs, nil)
	require.Equal(t, http.StatusOK, code)

	var got api.NotificationPrefs
	code = env.request(t, http.MethodGet, "/api/notifications/prefs", token, nil, &got)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, got.Community)
}

func TestDeleteUserEndsSessions(t *testing.T) {
	env := newTestServer(t)

	admin := env.loginAs(t, "root")
	member := env.loginAs(t, "alice")

	code := env.request(t, http.MethodDelete, "/api/users/alice", admin, nil, nil)
	require.Equal(t, http.StatusNoContent, code)

	assert.Equal(t, http.StatusUnauthorized,
		env.request(t, http.MethodGet, "/api/auth/session", member, nil, nil))
}

func TestHealthz(t *testing.T) {
	env := newTestServer(t)
	assert.Equal(t, http.StatusOK, env.request(t, http.MethodGet, "/healthz", "", nil, nil))
}

func TestProfileRoundTrip(t *testing.T) {
	env := newTestServer(t)
	token := env.loginAs(t, "alice")

	var p api.UserProfile
	code := env.request(t, http.MethodPut, "/api/user/profile", token,
		map[string]any{"displayName": "Alice L."}, &p)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "Alice L.", p.DisplayName)

	code = env.request(t, http.MethodGet, "/api/user/profile", token, nil, &p)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alice L.", p.DisplayName)

	// Profile routes require a session.
	code = env.request(t, http.MethodGet, "/api/user/profile", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestEmailVerificationEndpoints(t *testing.T) {
	env := newTestServer(t)
	token := env.loginAs(t, "alice")

	code := env.request(t, http.MethodPost, "/api/user/request-email-code", token,
		map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusNoContent, code)

	code = env.request(t, http.MethodPost, "/api/user/verify-email", token,
		map[string]string{"code": "000000"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = env.request(t, http.MethodPost, "/api/user/verify-email", token,
		map[string]string{"code": "424242"}, nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestPasswordResetEndpoints(t *testing.T) {
	env := newTestServer(t)

	// Unknown email is reported, matching the account-recovery UX.
	code := env.request(t, http.MethodPost, "/api/auth/request-password-reset", "",
		map[string]string{"email": "nobody@example.com"}, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code = env.request(t, http.MethodPost, "/api/auth/request-password-reset", "",
		map[string]string{"email": "alice@example.com"}, nil)
	require.Equal(t, http.StatusNoContent, code)

	var verify api.PasswordResetVerifyResponse
	code = env.request(t, http.MethodPost, "/api/auth/verify-password-reset", "",
		map[string]string{"email": "alice@example.com", "code": "424242"}, &verify)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, verify.Valid)

	code = env.request(t, http.MethodPost, "/api/auth/reset-password", "",
		map[string]string{"email": "alice@example.com", "code": "999999", "newPassword": "longenough"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = env.request(t, http.MethodPost, "/api/auth/reset-password", "",
		map[string]string{"email": "alice@example.com", "code": "424242", "newPassword": "longenough"}, nil)
	require.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, []string{"alice@example.com"}, env.profiles.resets)
}
