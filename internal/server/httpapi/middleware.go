package httpapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/server/sessions"
)

const sessionContextKey = "studyhall.session"

// instrument logs every request and feeds the Prometheus counters. The
// metrics path label is the route template, never the raw URL.
func (s *Server) instrument(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}

		elapsed := time.Since(start)
		req, res := c.Request(), c.Response()

		if s.metrics != nil {
			s.metrics.ObserveRequest(req.Method, c.Path(), res.Status, elapsed)
		}
		s.log.Debug(req.Context(), "request served",
			"method", req.Method, "path", req.URL.Path,
			"status", res.Status, "elapsed", elapsed)
		return nil
	}
}

// requireSession resolves the bearer token and refreshes the session's
// lastSeen, which is what keeps the user online.
func (s *Server) requireSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(common.AuthHeaderName)
		token, ok := strings.CutPrefix(header, common.AuthScheme+" ")
		if !ok || token == "" {
			return common.ErrUnauthorized
		}

		sess, ok := s.sessions.Get(token)
		if !ok {
			return common.ErrUnauthorized
		}
		s.sessions.Touch(token)

		c.Set(sessionContextKey, sess)
		return next(c)
	}
}

// requireAdmin guards the admin surface. Runs after requireSession.
func (s *Server) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentSession(c).Role != api.RoleAdmin {
			return common.ErrForbidden
		}
		return next(c)
	}
}

func currentSession(c echo.Context) *sessions.Session {
	return c.Get(sessionContextKey).(*sessions.Session)
}
