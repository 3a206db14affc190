package service

import (
	"time"

	"academy/internal/domain/entity"
)

// SessionTokenService signs sessions into opaque strings and reads them back.
// Parse fails for anything that was not produced by Sign with the current key and issuer,
// or whose expiry has passed.
type SessionTokenService interface {
	Sign(session entity.Session) (string, error)

	Parse(raw string) (*entity.Session, error)

	// TTL is the lifetime given to newly issued sessions.
	TTL() time.Duration
}
