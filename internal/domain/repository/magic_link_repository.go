package repository

import (
	"context"
	"time"

	"academy/internal/domain/entity"
	"academy/internal/errors"

	"github.com/google/uuid"
)

// ErrMagicLinkNotFound is returned when no token matches the hash.
var ErrMagicLinkNotFound = errors.New("magic link token not found")

// MagicLinkRepository persists hashed single-use sign-in tokens.
type MagicLinkRepository interface {
	Create(ctx context.Context, token *entity.MagicLinkToken) error

	FindByHash(ctx context.Context, tokenHash string) (*entity.MagicLinkToken, error)

	// MarkConsumed flags the token as used if nobody has done so yet.
	// It reports false when another consumer got there first.
	MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)

	// DeleteExpired removes tokens that expired before the cutoff and returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
