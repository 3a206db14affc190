// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Identity is a person capable of authenticating. It is not the business
// profile (Student, Instructor); those live outside this module.
type Identity struct {
	ID              uuid.UUID  // Stable identifier, never reassigned.
	Email           string     // Normalized email; unique across identities.
	DisplayName     string     // Optional human name.
	CredentialHash  string     // bcrypt hash; empty for passwordless/OAuth-only identities.
	Role            Role       // Canonical role.
	EmailVerifiedAt *time.Time // Set by the first successful magic-link or verified OAuth login.
	IsBlocked       bool       // Blocked identities never authenticate.
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HasPassword reports whether the identity can use the password strategy.
func (i *Identity) HasPassword() bool {
	return i.CredentialHash != ""
}

// IsEmailVerified reports whether ownership of the email has been proven.
func (i *Identity) IsEmailVerified() bool {
	return i.EmailVerifiedAt != nil
}

// NormalizeEmail returns the comparison key for an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
