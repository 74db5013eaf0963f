// Package profiles manages extended account data: contact details, display
// fields, email/phone verification codes, and the password-reset flow.
package profiles

import (
	"time"

	"github.com/studyhall/studyhall/internal/api"
)

// Code kinds. A profile carries at most one outstanding code; requesting a
// new one of any kind replaces it.
const (
	codeKindEmail = "email"
	codeKindPhone = "phone"
	codeKindReset = "reset"
)

// Profile is one user's extended account row. A user without a row behaves
// like an all-empty profile.
type Profile struct {
	Username        string
	Email           string
	EmailVerifiedAt *time.Time
	PhoneE164       string
	PhoneVerifiedAt *time.Time
	FirstName       string
	LastName        string
	DisplayName     string
	AvatarURL       string
	Bio             string
	Timezone        string
	Locale          string
	MarketingOptIn  bool

	// Outstanding verification code, hashed like a password.
	CodeHash        string
	CodeKind        string
	CodeExpiresAt   *time.Time
	CodeRequestedAt *time.Time

	UpdatedAt time.Time
}

func (p *Profile) Wire(role api.Role) api.UserProfile {
	out := api.UserProfile{
		Username:        p.Username,
		Role:            role,
		Email:           p.Email,
		EmailVerifiedAt: p.EmailVerifiedAt,
		PhoneE164:       p.PhoneE164,
		PhoneVerifiedAt: p.PhoneVerifiedAt,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		DisplayName:     p.DisplayName,
		AvatarURL:       p.AvatarURL,
		Bio:             p.Bio,
		Timezone:        p.Timezone,
		Locale:          p.Locale,
		MarketingOptIn:  p.MarketingOptIn,
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func (p *Profile) clearCode() {
	p.CodeHash = ""
	p.CodeKind = ""
	p.CodeExpiresAt = nil
	p.CodeRequestedAt = nil
}
