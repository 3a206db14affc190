package impl

import (
	"context"
	"log/slog"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/domain/entity"
	"academy/internal/domain/repository"
	"academy/internal/domain/service"
	"academy/internal/usecase"

	"go.uber.org/fx"
)

// sessionReader implements usecase.SessionReader.
type sessionReader struct {
	identityRepo repository.IdentityRepository
	tokens       service.SessionTokenService
	logger       *slog.Logger
}

// SessionReaderParams holds dependencies for the reader, injected by Fx.
type SessionReaderParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	Tokens       service.SessionTokenService
	Logger       *slog.Logger
}

// NewSessionReader is the constructor for sessionReader.
func NewSessionReader(params SessionReaderParams) usecase.SessionReader {
	return &sessionReader{
		identityRepo: params.IdentityRepo,
		tokens:       params.Tokens,
		logger:       params.Logger,
	}
}

// Read validates the token on its own. A role change takes effect here only after the token is reissued.
func (srv *sessionReader) Read(raw string) (*entity.Session, bool) {
	if raw == "" {
		return nil, false
	}

	session, err := srv.tokens.Parse(raw)
	if err != nil {
		return nil, false
	}

	return session, true
}

// ReadFresh validates the token and then consults the primary store. Storage errors
// read as no session.
func (srv *sessionReader) ReadFresh(ctx context.Context, raw string) (*entity.Session, bool) {
	session, ok := srv.Read(raw)
	if !ok {
		return nil, false
	}

	identity, err := srv.identityRepo.FindByIDFresh(ctx, session.SubjectID)
	if err != nil {
		deliverycontext.GetLoggerOrDefault(ctx, srv.logger).Debug("Session subject not readable",
			slog.String("identity_id", session.SubjectID.String()),
			slog.String("error", err.Error()),
		)

		return nil, false
	}

	if identity.IsBlocked {
		return nil, false
	}

	session.Role = identity.Role

	return session, true
}
