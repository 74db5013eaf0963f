package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func (s *Server) listConversations(c echo.Context) error {
	out, err := s.chat.List(c.Request().Context(), currentSession(c).Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) openConversation(c echo.Context) error {
	req := new(api.OpenConversationRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	out, err := s.chat.Open(c.Request().Context(), currentSession(c).Username, req.Participant)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) listMessages(c echo.Context) error {
	out, err := s.chat.Messages(c.Request().Context(), currentSession(c).Username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) sendMessage(c echo.Context) error {
	req := new(api.SendMessageRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	msg, err := s.chat.Send(c.Request().Context(), currentSession(c).Username, c.Param("id"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}

func (s *Server) markConversationRead(c echo.Context) error {
	if err := s.chat.MarkRead(c.Request().Context(), currentSession(c).Username, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) deleteConversation(c echo.Context) error {
	if err := s.chat.Delete(c.Request().Context(), currentSession(c).Username, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
