package httpapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

func (s *Server) presenceOverview(c echo.Context) error {
	overview, err := s.presence.Overview(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}

func (s *Server) presenceEvents(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	return c.JSON(http.StatusOK, s.presence.Events(limit))
}
