package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func (s *Server) listNotifications(c echo.Context) error {
	out, err := s.notifications.List(c.Request().Context(), currentSession(c).Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) markNotificationRead(c echo.Context) error {
	err := s.notifications.MarkRead(c.Request().Context(), currentSession(c).Username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) markAllNotificationsRead(c echo.Context) error {
	if err := s.notifications.MarkAllRead(c.Request().Context(), currentSession(c).Username); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) getNotificationPrefs(c echo.Context) error {
	prefs, err := s.notifications.Prefs(c.Request().Context(), currentSession(c).Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prefs)
}

func (s *Server) setNotificationPrefs(c echo.Context) error {
	req := new(api.NotificationPrefs)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}

	if err := s.notifications.SetPrefs(c.Request().Context(), currentSession(c).Username, *req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, req)
}
