package usecase

import (
	"context"
	"time"

	"academy/internal/domain/entity"

	"github.com/google/uuid"
)

// IdentityDetails is an identity together with its sign-in methods.
type IdentityDetails struct {
	Identity  *entity.Identity
	Providers []*entity.LinkedProvider
}

// IdentityAdminUsecase holds the back-office operations. The actor must be an ADMIN,
// checked against the store at call time.
type IdentityAdminUsecase interface {
	GetIdentity(ctx context.Context, actor *entity.Session, id uuid.UUID) (*IdentityDetails, error)
	UpdateRole(ctx context.Context, actor *entity.Session, id uuid.UUID, role entity.Role) (*entity.Identity, error)
	SetBlocked(ctx context.Context, actor *entity.Session, id uuid.UUID, blocked bool) (*entity.Identity, error)
}

// SeedAdminInput defines the bootstrap administrator.
type SeedAdminInput struct {
	Email       string
	Password    string
	DisplayName string
}

// OperatorUsecase holds the shell-level operations used by academyctl. Callers are
// trusted operators, so there is no actor check.
type OperatorUsecase interface {
	// SeedAdmin creates the administrator, or promotes and unblocks an existing identity.
	// created reports whether a new identity was inserted.
	SeedAdmin(ctx context.Context, input SeedAdminInput) (identity *entity.Identity, created bool, err error)
	SetRole(ctx context.Context, email string, role entity.Role) (*entity.Identity, error)
	SetBlocked(ctx context.Context, email string, blocked bool) (*entity.Identity, error)
	Lookup(ctx context.Context, email string) (*IdentityDetails, error)
	PurgeMagicLinks(ctx context.Context, before time.Time) (int64, error)
}
