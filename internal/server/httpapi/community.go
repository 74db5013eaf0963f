package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func (s *Server) listPosts(c echo.Context) error {
	out, err := s.community.List(c.Request().Context(), currentSession(c).Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) createPost(c echo.Context) error {
	req := new(api.CreatePostRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	sess := currentSession(c)
	post, err := s.community.Create(c.Request().Context(), sess.Username, sess.Role, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, post)
}

func (s *Server) likePost(c echo.Context) error {
	post, err := s.community.ToggleLike(c.Request().Context(), currentSession(c).Username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, post)
}

func (s *Server) listComments(c echo.Context) error {
	out, err := s.community.Comments(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) addComment(c echo.Context) error {
	req := new(api.AddCommentRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	comment, err := s.community.AddComment(c.Request().Context(), currentSession(c).Username, c.Param("id"), req.Body)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, comment)
}

func (s *Server) reportPost(c echo.Context) error {
	req := new(api.ReportPostRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	err := s.community.Report(c.Request().Context(), currentSession(c).Username, c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listReports(c echo.Context) error {
	out, err := s.community.OpenReports(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) resolveReport(c echo.Context) error {
	err := s.community.Resolve(c.Request().Context(), currentSession(c).Username, c.Param("id"))
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
