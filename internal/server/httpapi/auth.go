package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func (s *Server) signup(c echo.Context) error {
	req := new(api.SignupRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	user, err := s.users.Signup(c.Request().Context(), req.Username, req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user.Account())
}

func (s *Server) loginHandler(c echo.Context) error {
	req := new(api.LoginRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if !s.login.Allow(req.Username + "|" + c.RealIP()) {
		return common.ErrRateLimited
	}

	user, err := s.users.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	sess, err := s.sessions.Create(user.Username, user.Role)
	if err != nil {
		return err
	}

	s.presence.Emit(api.EventLogin, user.Username, user.Role)
	return c.JSON(http.StatusOK, api.LoginResponse{
		Token:    sess.Token,
		Username: sess.Username,
		Role:     sess.Role,
	})
}

func (s *Server) logout(c echo.Context) error {
	sess := currentSession(c)

	header := c.Request().Header.Get(common.AuthHeaderName)
	token, _ := strings.CutPrefix(header, common.AuthScheme+" ")
	s.sessions.Delete(token)

	s.presence.Emit(api.EventLogout, sess.Username, sess.Role)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) sessionInfo(c echo.Context) error {
	sess := currentSession(c)
	return c.JSON(http.StatusOK, api.SessionInfo{
		Username: sess.Username,
		Role:     sess.Role,
	})
}
