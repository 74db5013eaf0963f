// Package rest is the client's JSON request layer. Every remote operation
// the synchronization core issues goes through here; HTTP statuses map onto
// the shared sentinel errors so callers can match with errors.Is.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

// Client talks to one StudyHall server.
type Client struct {
	base    string
	http    *http.Client
	tokenFn func() string
}

// NewClient builds a client for base (e.g. "http://127.0.0.1:8080").
// tokenFn supplies the current bearer token, or "" when signed out.
func NewClient(base string, timeout time.Duration, tokenFn func() string) *Client {
	return &Client{
		base:    base,
		http:    &http.Client{Timeout: timeout},
		tokenFn: tokenFn,
	}
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokenFn(); token != "" {
		req.Header.Set(common.AuthHeaderName, common.AuthScheme+" "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w: %v", method, path, common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	var payload struct {
		Message string           `json:"message"`
		Fields  []api.FieldError `json:"fields"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Message
	if msg == "" {
		msg = resp.Status
	}
	for _, f := range payload.Fields {
		msg += fmt.Sprintf("; %s: %s", f.Field, f.Error)
	}

	var sentinel error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		sentinel = common.ErrValidation
	case resp.StatusCode == http.StatusUnauthorized:
		sentinel = common.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		sentinel = common.ErrForbidden
	case resp.StatusCode == http.StatusNotFound:
		sentinel = common.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		sentinel = common.ErrAlreadyExists
	case resp.StatusCode == http.StatusTooManyRequests:
		sentinel = common.ErrRateLimited
	case resp.StatusCode >= 500:
		sentinel = common.ErrServerError
	default:
		sentinel = common.ErrInternal
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}

// Ping probes the health endpoint. Used by the network watcher.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// --- auth ---

func (c *Client) Signup(ctx context.Context, req api.SignupRequest) error {
	return c.do(ctx, http.MethodPost, "/api/auth/signup", req, nil)
}

func (c *Client) Login(ctx context.Context, username, password string) (api.LoginResponse, error) {
	var out api.LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", api.LoginRequest{Username: username, Password: password}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

func (c *Client) SessionInfo(ctx context.Context) (api.SessionInfo, error) {
	var out api.SessionInfo
	err := c.do(ctx, http.MethodGet, "/api/auth/session", nil, &out)
	return out, err
}

// --- presence (admin) ---

func (c *Client) PresenceOverview(ctx context.Context) (api.PresenceOverview, error) {
	var out api.PresenceOverview
	err := c.do(ctx, http.MethodGet, "/api/presence/overview", nil, &out)
	return out, err
}

func (c *Client) PresenceEvents(ctx context.Context, limit int) ([]api.PresenceEvent, error) {
	var out []api.PresenceEvent
	err := c.do(ctx, http.MethodGet, "/api/presence/events?limit="+strconv.Itoa(limit), nil, &out)
	return out, err
}

// --- users (admin) ---

func (c *Client) Users(ctx context.Context) ([]api.UserAccount, error) {
	var out []api.UserAccount
	err := c.do(ctx, http.MethodGet, "/api/users", nil, &out)
	return out, err
}

func (c *Client) ApproveUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodPost, "/api/users/"+url.PathEscape(username)+"/approve", nil, nil)
}

func (c *Client) DeleteUser(ctx context.Context, username string) error {
	return c.do(ctx, http.MethodDelete, "/api/users/"+url.PathEscape(username), nil, nil)
}

// --- chat ---

func (c *Client) Conversations(ctx context.Context) ([]api.ConversationSummary, error) {
	var out []api.ConversationSummary
	err := c.do(ctx, http.MethodGet, "/api/chat/conversations", nil, &out)
	return out, err
}

func (c *Client) OpenConversation(ctx context.Context, participant string) (api.ConversationSummary, error) {
	var out api.ConversationSummary
	err := c.do(ctx, http.MethodPost, "/api/chat/conversations", api.OpenConversationRequest{Participant: participant}, &out)
	return out, err
}

func (c *Client) Messages(ctx context.Context, conversationID string) ([]api.Message, error) {
	var out []api.Message
	err := c.do(ctx, http.MethodGet, "/api/chat/conversations/"+url.PathEscape(conversationID)+"/messages", nil, &out)
	return out, err
}

// SendMessage is the one write that is never retried automatically: a retry
// could double-send.
func (c *Client) SendMessage(ctx context.Context, conversationID, bodyText string) (api.Message, error) {
	var out api.Message
	err := c.do(ctx, http.MethodPost, "/api/chat/conversations/"+url.PathEscape(conversationID)+"/messages", api.SendMessageRequest{Body: bodyText}, &out)
	return out, err
}

func (c *Client) MarkConversationRead(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodPost, "/api/chat/conversations/"+url.PathEscape(conversationID)+"/read", nil, nil)
}

func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/conversations/"+url.PathEscape(conversationID), nil, nil)
}

// --- notifications ---

func (c *Client) Notifications(ctx context.Context) ([]api.NotificationItem, error) {
	var out []api.NotificationItem
	err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &out)
	return out, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/notifications/read-all", nil, nil)
}

func (c *Client) NotificationPrefs(ctx context.Context) (api.NotificationPrefs, error) {
	var out api.NotificationPrefs
	err := c.do(ctx, http.MethodGet, "/api/notifications/prefs", nil, &out)
	return out, err
}

func (c *Client) SetNotificationPrefs(ctx context.Context, prefs api.NotificationPrefs) error {
	return c.do(ctx, http.MethodPut, "/api/notifications/prefs", prefs, nil)
}

// --- community ---

func (c *Client) Posts(ctx context.Context) ([]api.Post, error) {
	var out []api.Post
	err := c.do(ctx, http.MethodGet, "/api/community/posts", nil, &out)
	return out, err
}

func (c *Client) CreatePost(ctx context.Context, req api.CreatePostRequest) (api.Post, error) {
	var out api.Post
	err := c.do(ctx, http.MethodPost, "/api/community/posts", req, &out)
	return out, err
}

func (c *Client) LikePost(ctx context.Context, id string) (api.Post, error) {
	var out api.Post
	err := c.do(ctx, http.MethodPost, "/api/community/posts/"+url.PathEscape(id)+"/like", nil, &out)
	return out, err
}

func (c *Client) Comments(ctx context.Context, postID string) ([]api.Comment, error) {
	var out []api.Comment
	err := c.do(ctx, http.MethodGet, "/api/community/posts/"+url.PathEscape(postID)+"/comments", nil, &out)
	return out, err
}

func (c *Client) AddComment(ctx context.Context, postID, body string) (api.Comment, error) {
	var out api.Comment
	err := c.do(ctx, http.MethodPost, "/api/community/posts/"+url.PathEscape(postID)+"/comments", api.AddCommentRequest{Body: body}, &out)
	return out, err
}

func (c *Client) ReportPost(ctx context.Context, postID, reason string) error {
	return c.do(ctx, http.MethodPost, "/api/community/posts/"+url.PathEscape(postID)+"/report", api.ReportPostRequest{Reason: reason}, nil)
}

func (c *Client) Reports(ctx context.Context) ([]api.Report, error) {
	var out []api.Report
	err := c.do(ctx, http.MethodGet, "/api/community/reports", nil, &out)
	return out, err
}

func (c *Client) ResolveReport(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/community/reports/"+url.PathEscape(id)+"/resolve", nil, nil)
}

// --- flashcards ---

func (c *Client) Flashcards(ctx context.Context) ([]api.Flashcard, error) {
	var out []api.Flashcard
	err := c.do(ctx, http.MethodGet, "/api/flashcards", nil, &out)
	return out, err
}

func (c *Client) CreateUploadSlot(ctx context.Context) (api.UploadSlot, error) {
	var out api.UploadSlot
	err := c.do(ctx, http.MethodPost, "/api/flashcards/uploads", nil, &out)
	return out, err
}

func (c *Client) CreateFlashcard(ctx context.Context, req api.CreateFlashcardRequest) (api.Flashcard, error) {
	var out api.Flashcard
	err := c.do(ctx, http.MethodPost, "/api/flashcards", req, &out)
	return out, err
}

func (c *Client) FlashcardDetail(ctx context.Context, id string) (api.FlashcardDetail, error) {
	var out api.FlashcardDetail
	err := c.do(ctx, http.MethodGet, "/api/flashcards/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) DeleteFlashcard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/flashcards/"+url.PathEscape(id), nil, nil)
}

// Explain asks the explanation collaborator (proxied by the server) for a
// walkthrough of one question. Failures here are local to the caller and
// never affect quiz progression.
func (c *Client) Explain(ctx context.Context, req api.ExplainRequest) (api.ExplainResponse, error) {
	var out api.ExplainResponse
	err := c.do(ctx, http.MethodPost, "/api/flashcards/explain", req, &out)
	return out, err
}
