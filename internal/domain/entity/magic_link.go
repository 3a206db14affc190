package entity

import (
	"time"

	"github.com/google/uuid"
)

// MagicLinkToken is the stored half of a single-use sign-in link.
// Only the SHA-256 hash of the raw token is kept.
type MagicLinkToken struct {
	ID         uuid.UUID
	Email      string
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// IsUsable reports whether the token can still be exchanged for a session.
func (t *MagicLinkToken) IsUsable(now time.Time) bool {
	return t.ConsumedAt == nil && now.Before(t.ExpiresAt)
}
