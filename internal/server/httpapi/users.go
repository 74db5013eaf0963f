package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
)

func (s *Server) listUsers(c echo.Context) error {
	accounts, err := s.users.List(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]api.UserAccount, 0, len(accounts))
	for i := range accounts {
		out = append(out, accounts[i].Account())
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) approveUser(c echo.Context) error {
	user, err := s.users.Approve(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	s.presence.Emit(api.EventSignup, user.Username, user.Role)
	return c.JSON(http.StatusOK, user.Account())
}

func (s *Server) deleteUser(c echo.Context) error {
	username := c.Param("username")
	if err := s.users.Delete(c.Request().Context(), username); err != nil {
		return err
	}
	// drop their live sessions too, or they stay "online" until TTL
	s.sessions.DeleteForUser(username)
	return c.NoContent(http.StatusNoContent)
}
