// Package handler contains the HTTP handlers for the application.
package handler

import (
	"time"

	"academy/internal/domain/entity"
	"academy/internal/facade"
	"academy/internal/usecase"

	"github.com/google/uuid"
)

// IdentityView is the public shape of an identity. Credential hashes never leave the server.
type IdentityView struct {
	ID            uuid.UUID `json:"id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	IsBlocked     bool      `json:"is_blocked"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProviderView is one linked sign-in method.
type ProviderView struct {
	Provider          string    `json:"provider"`
	ProviderAccountID string    `json:"provider_account_id"`
	CreatedAt         time.Time `json:"created_at"`
}

// IdentityDetailsView is an identity with its sign-in methods.
type IdentityDetailsView struct {
	Identity  IdentityView   `json:"identity"`
	Providers []ProviderView `json:"providers"`
}

// SessionView answers "who am I". Anonymous requests get Authenticated=false and nothing else.
type SessionView struct {
	Authenticated bool       `json:"authenticated"`
	IdentityID    *uuid.UUID `json:"identity_id,omitempty"`
	Email         string     `json:"email,omitempty"`
	DisplayName   string     `json:"display_name,omitempty"`
	Role          string     `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

func newIdentityView(identity *entity.Identity) IdentityView {
	return IdentityView{
		ID:            identity.ID,
		Email:         identity.Email,
		DisplayName:   identity.DisplayName,
		Role:          identity.Role.String(),
		EmailVerified: identity.IsEmailVerified(),
		IsBlocked:     identity.IsBlocked,
		CreatedAt:     identity.CreatedAt,
	}
}

func newIdentityDetailsView(details *usecase.IdentityDetails) IdentityDetailsView {
	providers := make([]ProviderView, 0, len(details.Providers))
	for _, p := range details.Providers {
		providers = append(providers, ProviderView{
			Provider:          p.Provider.String(),
			ProviderAccountID: p.ProviderAccountID,
			CreatedAt:         p.CreatedAt,
		})
	}

	return IdentityDetailsView{Identity: newIdentityView(details.Identity), Providers: providers}
}

func newSessionView(current *facade.CurrentIdentity) SessionView {
	if current == nil {
		return SessionView{}
	}

	id := current.ID
	expiresAt := current.ExpiresAt

	return SessionView{
		Authenticated: true,
		IdentityID:    &id,
		Email:         current.Email,
		DisplayName:   current.DisplayName,
		Role:          current.Role.String(),
		ExpiresAt:     &expiresAt,
	}
}
