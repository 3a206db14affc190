// Package auth provides concrete implementations for authentication-related domain services.
package auth

import (
	"academy/config"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/service"
	"academy/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit; longer inputs are rejected rather than truncated.
const maxPasswordBytes = 72

// bcryptHasher is a concrete implementation of the PasswordHasher interface using bcrypt.
type bcryptHasher struct {
	cost      int
	minLength int
}

// NewBcryptHasher builds the hasher from the auth configuration.
func NewBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost, minLength := 0, 0
	if cfg != nil && cfg.Auth != nil {
		cost = cfg.Auth.BcryptCost
		minLength = cfg.Auth.PasswordMinLength
	}

	return newBcryptHasher(cost, minLength)
}

func newBcryptHasher(cost, minLength int) *bcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if minLength <= 0 {
		minLength = 8
	}

	return &bcryptHasher{cost: cost, minLength: minLength}
}

// Hash generates a salted hash from a plaintext password using bcrypt.
func (h *bcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", errors.Wrap(err, "bcrypt hash failed")
	}

	return string(bytes), nil
}

// Check compares a plaintext password with a bcrypt hash.
func (h *bcryptHasher) Check(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ValidatePasswordStrength enforces the length policy.
func (h *bcryptHasher) ValidatePasswordStrength(password string) error {
	if len(password) < h.minLength {
		return domainerrors.ErrPasswordStrength.WrapMessage("password too short")
	}
	if len(password) > maxPasswordBytes {
		return domainerrors.ErrPasswordStrength.WrapMessage("password too long")
	}

	return nil
}
