// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"academy/internal/domain/entity"
)

// Credentials is the closed set of authentication strategies. Only the three
// value types below implement it; pass them by value.
type Credentials interface {
	strategy() entity.ProviderType
}

// PasswordCredentials is an email/password login attempt.
type PasswordCredentials struct {
	Email    string
	Password string
}

func (PasswordCredentials) strategy() entity.ProviderType { return entity.ProviderTypePassword }

// MagicLinkCredentials carries the raw token taken from an emailed link.
type MagicLinkCredentials struct {
	Token string
}

func (MagicLinkCredentials) strategy() entity.ProviderType { return entity.ProviderTypeMagicLink }

// OAuthCredentials is an identity already verified by an external provider.
type OAuthCredentials struct {
	Provider          entity.ProviderType
	ProviderAccountID string
	Email             string
	EmailVerified     bool
	DisplayName       string
}

func (c OAuthCredentials) strategy() entity.ProviderType { return c.Provider }

// StrategyOf names the provider a credentials value authenticates against.
func StrategyOf(c Credentials) entity.ProviderType {
	return c.strategy()
}

// CredentialVerifier resolves credentials to an Identity. Failures are domain errors:
// InvalidCredentials, AccountBlocked, ExpiredOrUsedToken, AccountConflict or AuthInternalError.
type CredentialVerifier interface {
	Verify(ctx context.Context, credentials Credentials) (*entity.Identity, error)
}
