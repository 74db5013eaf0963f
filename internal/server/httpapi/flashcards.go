package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func (s *Server) listFlashcards(c echo.Context) error {
	out, err := s.flashcards.List(c.Request().Context(), currentSession(c).Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createUploadSlot(c echo.Context) error {
	slot, err := s.flashcards.CreateUploadSlot(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, slot)
}

func (s *Server) createFlashcard(c echo.Context) error {
	req := new(api.CreateFlashcardRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	card, err := s.flashcards.Create(c.Request().Context(), currentSession(c).Username, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, card)
}

func (s *Server) getFlashcard(c echo.Context) error {
	detail, err := s.flashcards.Get(c.Request().Context(), currentSession(c).Username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

func (s *Server) deleteFlashcard(c echo.Context) error {
	err := s.flashcards.Delete(c.Request().Context(), currentSession(c).Username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) explain(c echo.Context) error {
	req := new(api.ExplainRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	resp, err := s.flashcards.Explain(c.Request().Context(), *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}
