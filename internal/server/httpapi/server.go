// Package httpapi is the server's REST surface. Handlers stay thin: bind,
// validate, call the domain service, map the result onto the wire shapes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/config"
	"github.com/studyhall/studyhall/internal/server/metrics"
	"github.com/studyhall/studyhall/internal/server/sessions"
	"github.com/studyhall/studyhall/internal/server/users"
)

// The server depends on narrow views of the domain services so handler tests
// can fake exactly what they exercise.

type UserService interface {
	Signup(ctx context.Context, username, email, password string) (*users.User, error)
	Authenticate(ctx context.Context, username, password string) (*users.User, error)
	List(ctx context.Context) ([]users.User, error)
	Approve(ctx context.Context, username string) (*users.User, error)
	Delete(ctx context.Context, username string) error
}

type PresenceService interface {
	Emit(kind api.EventKind, username string, role api.Role)
	Events(limit int) []api.PresenceEvent
	Overview(ctx context.Context) (api.PresenceOverview, error)
}

type ChatService interface {
	Open(ctx context.Context, me, peer string) (api.ConversationSummary, error)
	List(ctx context.Context, me string) ([]api.ConversationSummary, error)
	Messages(ctx context.Context, me, conversationID string) ([]api.Message, error)
	Send(ctx context.Context, me, conversationID, body string) (api.Message, error)
	MarkRead(ctx context.Context, me, conversationID string) error
	Delete(ctx context.Context, me, conversationID string) error
}

type NotificationService interface {
	List(ctx context.Context, username string) ([]api.NotificationItem, error)
	MarkRead(ctx context.Context, username, id string) error
	MarkAllRead(ctx context.Context, username string) error
	Prefs(ctx context.Context, username string) (api.NotificationPrefs, error)
	SetPrefs(ctx context.Context, username string, prefs api.NotificationPrefs) error
}

type CommunityService interface {
	List(ctx context.Context, viewer string) ([]api.Post, error)
	Create(ctx context.Context, author string, authorRole api.Role, req api.CreatePostRequest) (api.Post, error)
	ToggleLike(ctx context.Context, viewer, postID string) (api.Post, error)
	Comments(ctx context.Context, postID string) ([]api.Comment, error)
	AddComment(ctx context.Context, author, postID, body string) (api.Comment, error)
	Report(ctx context.Context, reporter, postID, reason string) error
	OpenReports(ctx context.Context) ([]api.Report, error)
	Resolve(ctx context.Context, resolver, reportID string) error
}

type ProfileService interface {
	Get(ctx context.Context, username string) (api.UserProfile, error)
	Update(ctx context.Context, username string, req api.UpdateProfileRequest) (api.UserProfile, error)
	RequestEmailCode(ctx context.Context, username, email string) error
	VerifyEmail(ctx context.Context, username, code string) error
	RequestPhoneCode(ctx context.Context, username, phone string) error
	VerifyPhone(ctx context.Context, username, code string) error
	RequestPasswordReset(ctx context.Context, email string) error
	VerifyPasswordReset(ctx context.Context, email, code string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type FlashcardService interface {
	List(ctx context.Context, owner string) ([]api.Flashcard, error)
	CreateUploadSlot(ctx context.Context) (api.UploadSlot, error)
	Create(ctx context.Context, owner string, req api.CreateFlashcardRequest) (api.Flashcard, error)
	Get(ctx context.Context, owner, id string) (api.FlashcardDetail, error)
	Delete(ctx context.Context, owner, id string) error
	Explain(ctx context.Context, req api.ExplainRequest) (api.ExplainResponse, error)
}

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Sessions      *sessions.Store
	Users         UserService
	Presence      PresenceService
	Chat          ChatService
	Notifications NotificationService
	Community     CommunityService
	Profiles      ProfileService
	Flashcards    FlashcardService
	Metrics       *metrics.Metrics
}

// Server is the echo application.
type Server struct {
	echo *echo.Echo
	cfg  *config.Config
	log  logging.Logger

	sessions      *sessions.Store
	users         UserService
	presence      PresenceService
	chat          ChatService
	notifications NotificationService
	community     CommunityService
	profiles      ProfileService
	flashcards    FlashcardService
	metrics       *metrics.Metrics

	login *loginLimiter
}

func New(cfg *config.Config, log logging.Logger, deps Deps) (*Server, error) {
	s := &Server{
		cfg:           cfg,
		log:           log,
		sessions:      deps.Sessions,
		users:         deps.Users,
		presence:      deps.Presence,
		chat:          deps.Chat,
		notifications: deps.Notifications,
		community:     deps.Community,
		profiles:      deps.Profiles,
		flashcards:    deps.Flashcards,
		metrics:       deps.Metrics,
		login:         newLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	rv, err := newRequestValidator()
	if err != nil {
		return nil, err
	}
	e.Validator = rv
	e.HTTPErrorHandler = s.errorHandler

	e.Use(middleware.Recover())
	e.Use(s.instrument)

	s.echo = e
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	e := s.echo

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	root := e.Group("/api")

	auth := root.Group("/auth")
	auth.POST("/signup", s.signup)
	auth.POST("/login", s.loginHandler)
	auth.POST("/logout", s.logout, s.requireSession)
	auth.GET("/session", s.sessionInfo, s.requireSession)
	auth.POST("/request-password-reset", s.requestPasswordReset)
	auth.POST("/verify-password-reset", s.verifyPasswordReset)
	auth.POST("/reset-password", s.resetPassword)

	authed := root.Group("", s.requireSession)
	admin := root.Group("", s.requireSession, s.requireAdmin)

	pres := admin.Group("/presence")
	pres.GET("/overview", s.presenceOverview)
	pres.GET("/events", s.presenceEvents)

	usr := admin.Group("/users")
	usr.GET("", s.listUsers)
	usr.POST("/:username/approve", s.approveUser)
	usr.DELETE("/:username", s.deleteUser)

	prof := authed.Group("/user")
	prof.GET("/profile", s.getProfile)
	prof.PUT("/profile", s.updateProfile)
	prof.POST("/request-email-code", s.requestEmailCode)
	prof.POST("/verify-email", s.verifyEmailCode)
	prof.POST("/request-sms-code", s.requestSmsCode)
	prof.POST("/verify-phone", s.verifyPhoneCode)

	chat := authed.Group("/chat/conversations")
	chat.GET("", s.listConversations)
	chat.POST("", s.openConversation)
	chat.GET("/:id/messages", s.listMessages)
	chat.POST("/:id/messages", s.sendMessage)
	chat.POST("/:id/read", s.markConversationRead)
	chat.DELETE("/:id", s.deleteConversation)

	notif := authed.Group("/notifications")
	notif.GET("", s.listNotifications)
	notif.POST("/read-all", s.markAllNotificationsRead)
	notif.POST("/:id/read", s.markNotificationRead)
	notif.GET("/prefs", s.getNotificationPrefs)
	notif.PUT("/prefs", s.setNotificationPrefs)

	comm := authed.Group("/community")
	comm.GET("/posts", s.listPosts)
	comm.POST("/posts", s.createPost)
	comm.POST("/posts/:id/like", s.likePost)
	comm.GET("/posts/:id/comments", s.listComments)
	comm.POST("/posts/:id/comments", s.addComment)
	comm.POST("/posts/:id/report", s.reportPost)
	comm.GET("/reports", s.listReports, s.requireAdmin)
	comm.POST("/reports/:id/resolve", s.resolveReport, s.requireAdmin)

	cards := authed.Group("/flashcards")
	cards.GET("", s.listFlashcards)
	cards.POST("", s.createFlashcard)
	cards.POST("/uploads", s.createUploadSlot)
	cards.POST("/explain", s.explain)
	cards.GET("/:id", s.getFlashcard)
	cards.DELETE("/:id", s.deleteFlashcard)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.EndpointAddr)
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
