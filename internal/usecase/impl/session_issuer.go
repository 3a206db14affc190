package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/domain/service"
	"academy/internal/errors"
	"academy/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// sessionIssuer implements usecase.SessionIssuer.
type sessionIssuer struct {
	identityRepo repository.IdentityRepository
	tokens       service.SessionTokenService
	now          func() time.Time
	logger       *slog.Logger
}

// SessionIssuerParams holds dependencies for the issuer, injected by Fx.
type SessionIssuerParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	Tokens       service.SessionTokenService
	Logger       *slog.Logger
}

// NewSessionIssuer is the constructor for sessionIssuer.
func NewSessionIssuer(params SessionIssuerParams) usecase.SessionIssuer {
	return &sessionIssuer{
		identityRepo: params.IdentityRepo,
		tokens:       params.Tokens,
		now:          time.Now,
		logger:       params.Logger,
	}
}

func (srv *sessionIssuer) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Issue signs a session carrying the identity's current role.
func (srv *sessionIssuer) Issue(ctx context.Context, identity *entity.Identity) (*usecase.SessionToken, error) {
	if identity == nil {
		return nil, domainerrors.ErrUnauthenticated
	}
	if identity.IsBlocked {
		return nil, domainerrors.ErrAccountBlocked
	}

	// Token timestamps have second precision.
	issuedAt := srv.now().Truncate(time.Second)
	session := entity.Session{
		TokenID:   uuid.New(),
		SubjectID: identity.ID,
		Role:      identity.Role,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(srv.tokens.TTL()),
	}

	raw, err := srv.tokens.Sign(session)
	if err != nil {
		srv.log(ctx).Error("Failed to sign session", slog.String("error", err.Error()))

		return nil, domainerrors.ErrAuthInternalError.WrapMessage("sign session")
	}

	srv.log(ctx).Debug("Session issued",
		slog.String("identity_id", identity.ID.String()),
		slog.String("role", identity.Role.String()),
	)

	return &usecase.SessionToken{Raw: raw, Session: session}, nil
}

// Refresh reissues a still-valid token with the identity's role as stored on the primary.
func (srv *sessionIssuer) Refresh(ctx context.Context, raw string) (*usecase.SessionToken, error) {
	session, err := srv.tokens.Parse(raw)
	if err != nil {
		return nil, domainerrors.ErrUnauthenticated
	}

	identity, err := srv.identityRepo.FindByIDFresh(ctx, session.SubjectID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, domainerrors.ErrUnauthenticated
	}
	if err != nil {
		return nil, mapStorageError(ctx, srv.logger, err, "refresh session")
	}

	return srv.Issue(ctx, identity)
}
