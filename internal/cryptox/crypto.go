// Package cryptox holds the small amount of cryptography the project needs:
// password hashing for accounts and random tokens for sessions and storage
// keys.
package cryptox

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 390000
	saltLen          = 16
	keyLen           = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives a PBKDF2-SHA256 hash of password with a fresh random
// salt. The result has the form "<salt-hex>$<hash-hex>".
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, keyLen, sha256.New)
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored "salt$hash"
// value. A malformed stored value returns ErrMalformedHash.
func VerifyPassword(password, stored string) (bool, error) {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false, ErrMalformedHash
	}
	got := pbkdf2.Key([]byte(password), salt, pbkdf2Iterations, len(want), sha256.New)
	return hmac.Equal(got, want), nil
}

// RandomToken returns n random bytes hex-encoded. Used for session tokens.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
