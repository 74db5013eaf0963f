package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
)

func (s *Server) getProfile(c echo.Context) error {
	profile, err := s.profiles.Get(c.Request().Context(), currentSession(c).Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) updateProfile(c echo.Context) error {
	req := new(api.UpdateProfileRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	profile, err := s.profiles.Update(c.Request().Context(), currentSession(c).Username, *req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (s *Server) requestEmailCode(c echo.Context) error {
	req := new(api.RequestEmailCodeRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.RequestEmailCode(c.Request().Context(), currentSession(c).Username, req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) verifyEmailCode(c echo.Context) error {
	req := new(api.VerifyEmailRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.VerifyEmail(c.Request().Context(), currentSession(c).Username, req.Code); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) requestSmsCode(c echo.Context) error {
	req := new(api.RequestSmsCodeRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.RequestPhoneCode(c.Request().Context(), currentSession(c).Username, req.PhoneE164); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) verifyPhoneCode(c echo.Context) error {
	req := new(api.VerifyPhoneRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.VerifyPhone(c.Request().Context(), currentSession(c).Username, req.Code); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) requestPasswordReset(c echo.Context) error {
	req := new(api.PasswordResetRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) verifyPasswordReset(c echo.Context) error {
	req := new(api.PasswordResetVerifyRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.VerifyPasswordReset(c.Request().Context(), req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, api.PasswordResetVerifyResponse{Valid: true})
}

func (s *Server) resetPassword(c echo.Context) error {
	req := new(api.PasswordResetConfirmRequest)
	if err := c.Bind(req); err != nil {
		return common.ErrValidation
	}
	if err := c.Validate(req); err != nil {
		return err
	}

	if err := s.profiles.ResetPassword(c.Request().Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
