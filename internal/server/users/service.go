package users

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/cryptox"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/email"
)

// Service implements account flows over the repository.
type Service struct {
	repo   Repository
	mailer email.Mailer
	log    logging.Logger
}

func NewService(repo Repository, mailer email.Mailer, log logging.Logger) *Service {
	return &Service{repo: repo, mailer: mailer, log: log}
}

// Signup creates a pending member account and sends the verification notice.
// The account cannot log in until an admin approves it.
func (s *Service) Signup(ctx context.Context, username, emailAddr, password string) (*User, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, common.ErrAlreadyExists
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user, err := s.repo.Create(ctx, &User{
		Username:     username,
		Email:        emailAddr,
		PasswordHash: hash,
		Role:         api.RoleMember,
		State:        api.UserPending,
	})
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, emailAddr,
		"Welcome to StudyHall",
		fmt.Sprintf("Hi %s, your account was created and is waiting for admin approval.", username)); err != nil {
		s.log.Warn(ctx, "signup email failed", "user", username, "error", err)
	}

	return user, nil
}

// Authenticate checks credentials and records the login time. A pending
// account with correct credentials yields ErrAccountPending so the client
// can explain the state instead of a generic failure.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := cryptox.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	if user.State != api.UserActive {
		return nil, common.ErrAccountPending
	}

	if err := s.repo.UpdateLastLogin(ctx, username); err != nil {
		s.log.Warn(ctx, "failed to record login time", "user", username, "error", err)
	}
	return user, nil
}

// List returns every account, for the admin panel.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Approve activates a pending signup and sends the approval notice.
func (s *Service) Approve(ctx context.Context, username string) (*User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user.State == api.UserActive {
		return user, nil
	}

	if err := s.repo.UpdateState(ctx, username, api.UserActive); err != nil {
		return nil, err
	}
	user.State = api.UserActive

	if err := s.mailer.Send(ctx, user.Email,
		"Your StudyHall account is approved",
		fmt.Sprintf("Hi %s, you can log in now.", username)); err != nil {
		s.log.Warn(ctx, "approval email failed", "user", username, "error", err)
	}

	return user, nil
}

// Seed creates the default admin and member accounts when the users table is
// empty, so a fresh deployment is immediately usable. Credentials come from
// the environment, with development fallbacks.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []struct {
		username string
		password string
		role     api.Role
	}{
		{envOr("STUDYHALL_ADMIN_USERNAME", "admin"), envOr("STUDYHALL_ADMIN_PASSWORD", "Admin@1234"), api.RoleAdmin},
		{envOr("STUDYHALL_MEMBER_USERNAME", "member"), envOr("STUDYHALL_MEMBER_PASSWORD", "Member@1234"), api.RoleMember},
	}

	for _, d := range defaults {
		hash, err := cryptox.HashPassword(d.password)
		if err != nil {
			return fmt.Errorf("hashing seed password: %w", err)
		}
		if _, err := s.repo.Create(ctx, &User{
			Username:     d.username,
			PasswordHash: hash,
			Role:         d.role,
			State:        api.UserActive,
		}); err != nil {
			return err
		}
		s.log.Info(ctx, "seeded account", "user", d.username, "role", d.role)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// SetPassword replaces an account's password. Used by the reset flow; the
// caller is responsible for having proven ownership first.
func (s *Service) SetPassword(ctx context.Context, username, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, username, hash)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, username string) error {
	return s.repo.Delete(ctx, username)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, username string) (*User, error) {
	return s.repo.GetByUsername(ctx, username)
}
