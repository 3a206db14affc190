package usecase

import (
	"context"

	"academy/internal/domain/entity"
	"academy/internal/domain/service"
)

// --- Input DTOs ---

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Email    string
	Password string
}

// SignupInput defines the data required to self-register.
type SignupInput struct {
	DisplayName string
	Email       string
	Password    string
}

// --- Output DTOs ---

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	Identity *entity.Identity
	Token    *SessionToken
}

// AuthUsecase defines the sign-in operations exposed to delivery.
type AuthUsecase interface {
	Login(ctx context.Context, input LoginInput) (*AuthResult, error)
	Signup(ctx context.Context, input SignupInput) (*AuthResult, error)

	// RequestMagicLink stores a single-use token and hands the link to the mailer.
	// It succeeds for unknown emails too; only a dispatch failure is reported (DeliveryFailed).
	RequestMagicLink(ctx context.Context, email string) error
	VerifyMagicLink(ctx context.Context, token string) (*AuthResult, error)

	// OAuthLogin signs in with an identity asserted by a provider.
	OAuthLogin(ctx context.Context, user *service.OAuthUser) (*AuthResult, error)

	Refresh(ctx context.Context, raw string) (*SessionToken, error)
}
