// Package google implements Google sign-in: the authorization-code flow and
// verification of ID tokens obtained by the browser.
package google

import (
	"context"
	"log/slog"
	"strings"

	"academy/config"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/service"
	"academy/internal/errors"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	"google.golang.org/api/idtoken"
)

const providerName = "google"

var allowedIssuers = map[string]struct{}{
	"accounts.google.com":         {},
	"https://accounts.google.com": {},
}

// validateFunc matches idtoken.Validate so tests can substitute it.
type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Provider implements service.OAuthProvider and service.OAuthAuthService for Google.
type Provider struct {
	oauthConfig *oauth2.Config
	validate    validateFunc
	logger      *slog.Logger
}

// NewProvider builds the Google provider. It returns nil when no client ID is
// configured, which leaves Google sign-in disabled.
func NewProvider(cfg *config.Config, logger *slog.Logger) *Provider {
	if cfg.GoogleOAuth == nil || strings.TrimSpace(cfg.GoogleOAuth.ClientID) == "" {
		return nil
	}

	return &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.GoogleOAuth.ClientID,
			ClientSecret: cfg.GoogleOAuth.ClientSecret,
			RedirectURL:  cfg.GoogleOAuth.RedirectURI,
			Endpoint:     endpoints.Google,
			Scopes:       []string{"openid", "email", "profile"},
		},
		validate: idtoken.Validate,
		logger:   logger,
	}
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// GetProvider returns the linked-provider type for Google accounts.
func (p *Provider) GetProvider() entity.ProviderType {
	return entity.OAuthProvider(providerName)
}

// AuthCodeURL builds the consent-screen URL.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades the authorization code for tokens and verifies the returned ID token.
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*service.OAuthUser, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("google token exchange failed: " + err.Error())
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("google did not return id_token")
	}

	return p.VerifyIDToken(ctx, rawIDToken)
}

// VerifyIDToken checks signature, audience, issuer and expiry of a Google ID token.
func (p *Provider) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	payload, err := p.validate(ctx, idToken, p.oauthConfig.ClientID)
	if err != nil {
		p.logger.Warn("Google ID token rejected", slog.String("error", err.Error()))

		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("failed to validate google id token")
	}

	if _, ok := allowedIssuers[payload.Issuer]; !ok {
		return nil, domainerrors.ErrOAuthTokenInvalid.WrapMessage("invalid issuer " + payload.Issuer)
	}

	user, err := userFromPayload(payload)
	if err != nil {
		return nil, err
	}

	p.logger.Info("Google ID token verified",
		slog.Bool("emailVerified", user.EmailVerified),
	)

	return user, nil
}

func userFromPayload(payload *idtoken.Payload) (*service.OAuthUser, error) {
	email, _ := payload.Claims["email"].(string)
	if payload.Subject == "" || email == "" {
		return nil, errors.Wrap(domainerrors.ErrOAuthTokenInvalid, "google id token missing sub or email")
	}

	name, _ := payload.Claims["name"].(string)

	return &service.OAuthUser{
		ID:            payload.Subject,
		Email:         email,
		Name:          name,
		Provider:      entity.OAuthProvider(providerName),
		EmailVerified: claimBool(payload.Claims["email_verified"]),
	}, nil
}

// claimBool accepts both JSON booleans and the "true" strings some Google tokens carry.
func claimBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return strings.EqualFold(b, "true")
	default:
		return false
	}
}
