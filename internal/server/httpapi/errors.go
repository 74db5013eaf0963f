package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

// errorPayload is the body of every non-2xx response. The client reverses
// this mapping back into the shared sentinels.
type errorPayload struct {
	Message string           `json:"message"`
	Fields  []api.FieldError `json:"fields,omitempty"`
}

func (s *Server) errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	payload := errorPayload{Message: "internal error"}

	var verr *ValidationError
	var herr *echo.HTTPError

	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		payload = errorPayload{Message: "validation failed", Fields: verr.Fields}
	case errors.As(err, &herr):
		status = herr.Code
		payload.Message = http.StatusText(status)
		if msg, ok := herr.Message.(string); ok {
			payload.Message = msg
		}
	case errors.Is(err, common.ErrValidation):
		status = http.StatusBadRequest
		payload.Message = err.Error()
	case errors.Is(err, common.ErrInvalidCredentials), errors.Is(err, common.ErrUnauthorized):
		status = http.StatusUnauthorized
		payload.Message = err.Error()
	case errors.Is(err, common.ErrAccountPending), errors.Is(err, common.ErrForbidden):
		status = http.StatusForbidden
		payload.Message = err.Error()
	case errors.Is(err, common.ErrNotFound):
		status = http.StatusNotFound
		payload.Message = err.Error()
	case errors.Is(err, common.ErrAlreadyExists):
		status = http.StatusConflict
		payload.Message = err.Error()
	case errors.Is(err, common.ErrRateLimited):
		status = http.StatusTooManyRequests
		payload.Message = err.Error()
	default:
		s.log.Error(context.Background(), "request failed",
			"method", c.Request().Method, "path", c.Path(), "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, payload)
	}
	if werr != nil {
		s.log.Error(context.Background(), "writing error response failed", "error", werr)
	}
}
