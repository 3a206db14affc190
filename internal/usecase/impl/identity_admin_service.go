package impl

import (
	"context"
	"log/slog"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/errors"
	"academy/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// identityAdminService implements usecase.IdentityAdminUsecase.
type identityAdminService struct {
	identityRepo repository.IdentityRepository
	providerRepo repository.ProviderRepository
	logger       *slog.Logger
}

// IdentityAdminServiceParams holds dependencies for IdentityAdminService, injected by Fx.
type IdentityAdminServiceParams struct {
	fx.In

	IdentityRepo repository.IdentityRepository
	ProviderRepo repository.ProviderRepository
	Logger       *slog.Logger
}

// NewIdentityAdminService is the constructor for identityAdminService.
func NewIdentityAdminService(params IdentityAdminServiceParams) usecase.IdentityAdminUsecase {
	return &identityAdminService{
		identityRepo: params.IdentityRepo,
		providerRepo: params.ProviderRepo,
		logger:       params.Logger,
	}
}

func (srv *identityAdminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// GetIdentity returns an identity and its linked providers.
func (srv *identityAdminService) GetIdentity(ctx context.Context, actor *entity.Session, id uuid.UUID) (*usecase.IdentityDetails, error) {
	if err := srv.authorize(ctx, actor); err != nil {
		return nil, err
	}

	return loadIdentityDetails(ctx, srv.logger, srv.identityRepo, srv.providerRepo, func() (*entity.Identity, error) {
		return srv.identityRepo.FindByID(ctx, id)
	})
}

// UpdateRole changes the role of an identity. Sessions already issued keep their role
// until refreshed; fresh reads see the new role immediately.
func (srv *identityAdminService) UpdateRole(ctx context.Context, actor *entity.Session, id uuid.UUID, role entity.Role) (*entity.Identity, error) {
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role")
	}

	if err := srv.authorize(ctx, actor); err != nil {
		return nil, err
	}

	if actor.SubjectID == id && role != entity.RoleAdmin {
		return nil, domainerrors.ErrSelfLockout
	}

	if err := srv.identityRepo.UpdateRole(ctx, id, role); err != nil {
		return nil, srv.mapIdentityError(ctx, err, "update role")
	}

	srv.log(ctx).Info("Identity role updated",
		slog.String("actor_id", actor.SubjectID.String()),
		slog.String("identity_id", id.String()),
		slog.String("role", role.String()),
	)

	return srv.reload(ctx, id)
}

// SetBlocked blocks or unblocks an identity.
func (srv *identityAdminService) SetBlocked(ctx context.Context, actor *entity.Session, id uuid.UUID, blocked bool) (*entity.Identity, error) {
	if err := srv.authorize(ctx, actor); err != nil {
		return nil, err
	}

	if actor.SubjectID == id && blocked {
		return nil, domainerrors.ErrSelfLockout
	}

	if err := srv.identityRepo.SetBlocked(ctx, id, blocked); err != nil {
		return nil, srv.mapIdentityError(ctx, err, "set blocked")
	}

	srv.log(ctx).Info("Identity block state changed",
		slog.String("actor_id", actor.SubjectID.String()),
		slog.String("identity_id", id.String()),
		slog.Bool("blocked", blocked),
	)

	return srv.reload(ctx, id)
}

// authorize checks the actor against the primary store, not against the role in its token.
func (srv *identityAdminService) authorize(ctx context.Context, actor *entity.Session) error {
	if actor == nil {
		return domainerrors.ErrUnauthenticated
	}

	current, err := srv.identityRepo.FindByIDFresh(ctx, actor.SubjectID)
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return domainerrors.ErrUnauthenticated
	}
	if err != nil {
		return mapStorageError(ctx, srv.logger, err, "authorize actor")
	}

	if current.IsBlocked {
		return domainerrors.ErrUnauthenticated
	}
	if current.Role != entity.RoleAdmin {
		return domainerrors.ErrForbidden
	}

	return nil
}

func (srv *identityAdminService) reload(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	identity, err := srv.identityRepo.FindByIDFresh(ctx, id)
	if err != nil {
		return nil, srv.mapIdentityError(ctx, err, "reload identity")
	}

	return identity, nil
}

func (srv *identityAdminService) mapIdentityError(ctx context.Context, err error, operation string) error {
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return domainerrors.ErrIdentityNotFound
	}

	return mapStorageError(ctx, srv.logger, err, operation)
}

func loadIdentityDetails(
	ctx context.Context,
	logger *slog.Logger,
	identityRepo repository.IdentityRepository,
	providerRepo repository.ProviderRepository,
	find func() (*entity.Identity, error),
) (*usecase.IdentityDetails, error) {
	identity, err := find()
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, domainerrors.ErrIdentityNotFound
	}
	if err != nil {
		return nil, mapStorageError(ctx, logger, err, "find identity")
	}

	providers, err := providerRepo.ListByIdentity(ctx, identity.ID)
	if err != nil {
		return nil, mapStorageError(ctx, logger, err, "list providers")
	}

	return &usecase.IdentityDetails{Identity: identity, Providers: providers}, nil
}
