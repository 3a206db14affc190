package service

import (
	"context"

	"academy/internal/domain/entity"
)

// OAuthUser is the identity asserted by an external provider.
type OAuthUser struct {
	ID            string              // Provider-specific user ID (e.g., Google's 'sub' claim)
	Email         string              // User's email address
	Name          string              // User's display name
	Provider      entity.ProviderType // e.g. oauth:google
	EmailVerified bool                // Whether the email is verified by the provider
}

// OAuthAuthService verifies ID tokens obtained by the client directly (Google Sign-In).
type OAuthAuthService interface {
	VerifyIDToken(ctx context.Context, idToken string) (*OAuthUser, error)

	GetProvider() entity.ProviderType
}

// OAuthProvider drives the server-side authorization-code flow for one provider.
type OAuthProvider interface {
	// Name is the route segment of the provider, e.g. "google".
	Name() string

	AuthCodeURL(state string) string

	// ExchangeCode trades an authorization code for the verified provider identity.
	ExchangeCode(ctx context.Context, code string) (*OAuthUser, error)
}
