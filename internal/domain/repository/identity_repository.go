// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"academy/internal/domain/entity"
	"academy/internal/errors"

	"github.com/google/uuid"
)

var (
	// ErrIdentityNotFound is returned when no identity matches the lookup.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrIdentityAlreadyExists is returned when the normalized email is already taken.
	ErrIdentityAlreadyExists = errors.New("identity already exists")
)

// IdentityRepository persists identities. Every email argument is normalized
// by the implementation before it reaches the store.
type IdentityRepository interface {
	// FindByID retrieves an identity, possibly from a read replica.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	// FindByIDFresh retrieves an identity from the primary, bypassing replicas.
	FindByIDFresh(ctx context.Context, id uuid.UUID) (*entity.Identity, error)

	FindByEmail(ctx context.Context, email string) (*entity.Identity, error)

	// Create persists a new identity. ErrIdentityAlreadyExists on a duplicate email.
	Create(ctx context.Context, identity *entity.Identity) error

	// FindOrCreateByEmail returns the identity for email, inserting one built from
	// template when none exists. Concurrent callers for the same email all receive
	// the same row; created is true only for the caller whose insert won.
	FindOrCreateByEmail(ctx context.Context, template *entity.Identity) (identity *entity.Identity, created bool, err error)

	UpdateRole(ctx context.Context, id uuid.UUID, role entity.Role) error

	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error

	// MarkEmailVerified sets email_verified_at when it is still unset.
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}
