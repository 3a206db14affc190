// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderType names one authentication method.
type ProviderType string

const (
	// ProviderTypePassword is the local email/password method.
	ProviderTypePassword ProviderType = "password"
	// ProviderTypeMagicLink is the passwordless emailed-link method.
	ProviderTypeMagicLink ProviderType = "email-magic-link"

	oauthProviderPrefix = "oauth:"
)

// OAuthProvider builds the provider type for an external OAuth provider, e.g. "oauth:google".
func OAuthProvider(name string) ProviderType {
	return ProviderType(oauthProviderPrefix + strings.ToLower(strings.TrimSpace(name)))
}

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// IsOAuth reports whether the provider is an external OAuth provider.
func (p ProviderType) IsOAuth() bool {
	return strings.HasPrefix(string(p), oauthProviderPrefix) && len(p) > len(oauthProviderPrefix)
}

// LinkedProvider binds one authentication method to an Identity.
// For the password and magic-link methods the account id is the normalized email;
// for OAuth it is the provider's subject claim.
type LinkedProvider struct {
	ID                uuid.UUID
	IdentityID        uuid.UUID
	Provider          ProviderType
	ProviderAccountID string
	CreatedAt         time.Time
}
