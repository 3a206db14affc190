package usecase

import (
	"context"

	"academy/internal/domain/entity"
)

// SessionToken pairs a signed token with the session it encodes.
type SessionToken struct {
	Raw     string
	Session entity.Session
}

// SessionIssuer turns identities into signed sessions.
type SessionIssuer interface {
	// Issue signs a session for the identity as it is now.
	Issue(ctx context.Context, identity *entity.Identity) (*SessionToken, error)

	// Refresh re-reads the identity behind a still-valid token from the primary store and
	// issues a new token with its current role. Blocked identities get AccountBlocked.
	Refresh(ctx context.Context, raw string) (*SessionToken, error)
}

// SessionReader resolves tokens to sessions. It never returns errors; any failure reads as no session.
type SessionReader interface {
	// Read validates signature and expiry only.
	Read(raw string) (*entity.Session, bool)

	// ReadFresh also re-checks the store: blocked or deleted identities read as no session,
	// and the role is taken from the store.
	ReadFresh(ctx context.Context, raw string) (*entity.Session, bool)
}
