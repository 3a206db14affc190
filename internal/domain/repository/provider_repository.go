package repository

import (
	"context"

	"academy/internal/domain/entity"
	"academy/internal/errors"

	"github.com/google/uuid"
)

var (
	// ErrProviderNotFound is returned when no linked provider matches the lookup.
	ErrProviderNotFound = errors.New("linked provider not found")
	// ErrProviderConflict is returned when a provider account already belongs to
	// another identity, or the identity already holds another account for the provider.
	ErrProviderConflict = errors.New("linked provider conflict")
)

// ProviderRepository persists the authentication methods bound to identities.
type ProviderRepository interface {
	// Link binds the provider account to the identity. Linking the same pair twice is a no-op;
	// any other collision returns ErrProviderConflict.
	Link(ctx context.Context, link *entity.LinkedProvider) error

	FindByAccount(ctx context.Context, provider entity.ProviderType, accountID string) (*entity.LinkedProvider, error)

	FindByIdentityAndProvider(ctx context.Context, identityID uuid.UUID, provider entity.ProviderType) (*entity.LinkedProvider, error)

	ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*entity.LinkedProvider, error)
}
