package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is the stateless claim derived from an Identity when a token is issued.
// It is never persisted; the token is the only copy.
type Session struct {
	TokenID   uuid.UUID // jti; reserved for a subject+issuedAt deny-list.
	SubjectID uuid.UUID
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session is past its expiry at the given instant.
func (s Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
