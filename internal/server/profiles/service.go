package profiles

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/studyhall/studyhall/internal/api"
	"github.com/studyhall/studyhall/internal/common"
	"github.com/studyhall/studyhall/internal/cryptox"
	"github.com/studyhall/studyhall/internal/logging"
	"github.com/studyhall/studyhall/internal/server/email"
	"github.com/studyhall/studyhall/internal/server/users"
)

const (
	// One code per profile, valid for an hour; a fresh one can be requested
	// once a minute.
	codeTTL         = time.Hour
	requestCooldown = time.Minute
)

// AccountSource resolves usernames to accounts, for role lookup and
// existence checks.
type AccountSource interface {
	Get(ctx context.Context, username string) (*users.User, error)
}

// PasswordRotator replaces an account's password. Satisfied by the users
// service so the reset flow never touches password hashes directly.
type PasswordRotator interface {
	SetPassword(ctx context.Context, username, password string) error
}

// Service implements profile reads/updates, contact verification, and
// password reset.
type Service struct {
	repo      Repository
	accounts  AccountSource
	passwords PasswordRotator
	mailer    email.Mailer
	log       logging.Logger

	now     func() time.Time
	newCode func() (string, error)
}

func NewService(repo Repository, accounts AccountSource, passwords PasswordRotator,
	mailer email.Mailer, log logging.Logger) *Service {
	return &Service{
		repo:      repo,
		accounts:  accounts,
		passwords: passwords,
		mailer:    mailer,
		log:       log,
		now:       time.Now,
		newCode:   randomCode,
	}
}

// randomCode returns a six-digit verification code.
func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Get returns the caller's profile. A user who never saved one gets an empty
// profile rather than a 404.
func (s *Service) Get(ctx context.Context, username string) (api.UserProfile, error) {
	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		return api.UserProfile{}, err
	}
	p, err := s.load(ctx, username)
	if err != nil {
		return api.UserProfile{}, err
	}
	return p.Wire(account.Role), nil
}

// Update applies the non-nil fields. Changing the email or phone number
// resets its verification state and drops any outstanding code.
func (s *Service) Update(ctx context.Context, username string, req api.UpdateProfileRequest) (api.UserProfile, error) {
	account, err := s.accounts.Get(ctx, username)
	if err != nil {
		return api.UserProfile{}, err
	}
	p, err := s.load(ctx, username)
	if err != nil {
		return api.UserProfile{}, err
	}

	if req.Email != nil {
		if next := normalizeEmail(*req.Email); next != p.Email {
			p.Email = next
			p.EmailVerifiedAt = nil
			p.clearCode()
		}
	}
	if req.PhoneE164 != nil {
		if next := strings.TrimSpace(*req.PhoneE164); next != p.PhoneE164 {
			p.PhoneE164 = next
			p.PhoneVerifiedAt = nil
			p.clearCode()
		}
	}
	if req.FirstName != nil {
		p.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		p.LastName = *req.LastName
	}
	if req.DisplayName != nil {
		p.DisplayName = *req.DisplayName
	}
	if req.AvatarURL != nil {
		p.AvatarURL = *req.AvatarURL
	}
	if req.Bio != nil {
		p.Bio = *req.Bio
	}
	if req.Timezone != nil {
		p.Timezone = *req.Timezone
	}
	if req.Locale != nil {
		p.Locale = *req.Locale
	}
	if req.MarketingOptIn != nil {
		p.MarketingOptIn = *req.MarketingOptIn
	}

	p, err = s.repo.Save(ctx, p)
	if err != nil {
		return api.UserProfile{}, err
	}
	return p.Wire(account.Role), nil
}

// RequestEmailCode stores the address and mails a verification code to it.
func (s *Service) RequestEmailCode(ctx context.Context, username, emailAddr string) error {
	code, err := s.issueCode(ctx, username, codeKindEmail, func(p *Profile) {
		p.Email = normalizeEmail(emailAddr)
		p.EmailVerifiedAt = nil
	})
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, normalizeEmail(emailAddr),
		"Verify your email address",
		fmt.Sprintf("Your StudyHall verification code is %s. It expires in %d minutes.",
			code, int(codeTTL.Minutes()))); err != nil {
		return fmt.Errorf("sending verification email: %w", err)
	}
	return nil
}

// VerifyEmail confirms the address with the mailed code.
func (s *Service) VerifyEmail(ctx context.Context, username, code string) error {
	return s.confirmCode(ctx, username, codeKindEmail, code, func(p *Profile, now time.Time) {
		p.EmailVerifiedAt = &now
	})
}

// RequestPhoneCode stores the number and issues a verification code. There
// is no SMS transport; the code is surfaced through the server log.
func (s *Service) RequestPhoneCode(ctx context.Context, username, phone string) error {
	code, err := s.issueCode(ctx, username, codeKindPhone, func(p *Profile) {
		p.PhoneE164 = strings.TrimSpace(phone)
		p.PhoneVerifiedAt = nil
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "sms verification code issued", "user", username, "code", code)
	return nil
}

// VerifyPhone confirms the number with the issued code.
func (s *Service) VerifyPhone(ctx context.Context, username, code string) error {
	return s.confirmCode(ctx, username, codeKindPhone, code, func(p *Profile, now time.Time) {
		p.PhoneVerifiedAt = &now
	})
}

// RequestPasswordReset mails a reset code to the address, when some profile
// owns it.
func (s *Service) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	p, err := s.repo.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		return err
	}
	if underCooldown(p, s.now()) {
		return common.ErrRateLimited
	}

	code, err := s.armCode(p, codeKindReset)
	if err != nil {
		return err
	}
	if _, err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, p.Email,
		"Reset your StudyHall password",
		fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.",
			code, int(codeTTL.Minutes()))); err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	return nil
}

// VerifyPasswordReset checks a reset code without consuming it.
func (s *Service) VerifyPasswordReset(ctx context.Context, emailAddr, code string) error {
	p, err := s.repo.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrValidation
		}
		return err
	}
	if !codeMatches(p, codeKindReset, code, s.now()) {
		return common.ErrValidation
	}
	return nil
}

// ResetPassword consumes a valid reset code and rotates the account
// password.
func (s *Service) ResetPassword(ctx context.Context, emailAddr, code, newPassword string) error {
	p, err := s.repo.GetByEmail(ctx, normalizeEmail(emailAddr))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrValidation
		}
		return err
	}
	if !codeMatches(p, codeKindReset, code, s.now()) {
		return common.ErrValidation
	}

	if err := s.passwords.SetPassword(ctx, p.Username, newPassword); err != nil {
		return err
	}

	p.clearCode()
	if _, err := s.repo.Save(ctx, p); err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "user", p.Username)
	return nil
}

// load returns the stored profile or a fresh empty one for the username.
func (s *Service) load(ctx context.Context, username string) (*Profile, error) {
	p, err := s.repo.Get(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return &Profile{Username: username}, nil
		}
		return nil, err
	}
	return p, nil
}

// issueCode runs the shared request path: existence check, cooldown, mutate,
// arm, save. It returns the plain code for delivery.
func (s *Service) issueCode(ctx context.Context, username, kind string, mutate func(*Profile)) (string, error) {
	if _, err := s.accounts.Get(ctx, username); err != nil {
		return "", err
	}
	p, err := s.load(ctx, username)
	if err != nil {
		return "", err
	}
	if underCooldown(p, s.now()) {
		return "", common.ErrRateLimited
	}

	mutate(p)
	code, err := s.armCode(p, kind)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.Save(ctx, p); err != nil {
		return "", err
	}
	return code, nil
}

// confirmCode runs the shared verify path and clears the code on success.
func (s *Service) confirmCode(ctx context.Context, username, kind, code string, mark func(*Profile, time.Time)) error {
	p, err := s.load(ctx, username)
	if err != nil {
		return err
	}
	now := s.now()
	if !codeMatches(p, kind, code, now) {
		return common.ErrValidation
	}

	mark(p, now)
	p.clearCode()
	_, err = s.repo.Save(ctx, p)
	return err
}

// armCode hashes a fresh code onto the profile.
func (s *Service) armCode(p *Profile, kind string) (string, error) {
	code, err := s.newCode()
	if err != nil {
		return "", err
	}
	hash, err := cryptox.HashPassword(code)
	if err != nil {
		return "", fmt.Errorf("hashing code: %w", err)
	}
	now := s.now()
	expires := now.Add(codeTTL)
	p.CodeHash = hash
	p.CodeKind = kind
	p.CodeExpiresAt = &expires
	p.CodeRequestedAt = &now
	return code, nil
}

func codeMatches(p *Profile, kind, code string, now time.Time) bool {
	if p.CodeHash == "" || p.CodeKind != kind {
		return false
	}
	if p.CodeExpiresAt == nil || p.CodeExpiresAt.Before(now) {
		return false
	}
	ok, err := cryptox.VerifyPassword(code, p.CodeHash)
	return err == nil && ok
}

func underCooldown(p *Profile, now time.Time) bool {
	return p.CodeRequestedAt != nil && now.Sub(*p.CodeRequestedAt) < requestCooldown
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
