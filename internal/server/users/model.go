// Package users owns accounts: signup, credential checks, admin approval.
package users

import (
	"time"

	"github.com/studyhall/studyhall/internal/api"
)

// User is one account row.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         api.Role
	State        string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}

// Account converts to the admin wire shape.
func (u *User) Account() api.UserAccount {
	return api.UserAccount{
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		State:       u.State,
		CreatedAt:   u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}
