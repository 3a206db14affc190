// Package entity contains the core business objects of the project.
package entity

import (
	"strings"

	"academy/internal/errors"
)

// Role is the single authorization attribute carried by an Identity and its Session.
// Values are always held in canonical upper-case form.
type Role string

const (
	// RoleAdmin can reach the back-office and manage identities.
	RoleAdmin Role = "ADMIN"
	// RoleStudent is the default role granted on self-registration.
	RoleStudent Role = "STUDENT"
	// RoleInstructor teaches courses and mentorship sessions.
	RoleInstructor Role = "INSTRUCTOR"
)

// ErrUnknownRole is returned when a string cannot be mapped onto a Role.
var ErrUnknownRole = errors.New("unknown role")

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is one of the canonical values.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleInstructor:
		return true
	default:
		return false
	}
}

// ParseRole maps any casing of a role name onto its canonical value.
// This is the only place role strings are normalized; everything downstream
// compares canonical values directly.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !role.IsValid() {
		return "", errors.Wrapf(ErrUnknownRole, "role %q", s)
	}

	return role, nil
}
