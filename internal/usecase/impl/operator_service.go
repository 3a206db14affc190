package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/domain/service"
	"academy/internal/errors"
	"academy/internal/usecase"

	"go.uber.org/fx"
)

// operatorService implements usecase.OperatorUsecase for the academyctl commands.
type operatorService struct {
	txManager     repository.TransactionManager
	identityRepo  repository.IdentityRepository
	providerRepo  repository.ProviderRepository
	magicLinkRepo repository.MagicLinkRepository
	hasher        service.PasswordHasher
	logger        *slog.Logger
}

// OperatorServiceParams holds dependencies for OperatorService, injected by Fx.
type OperatorServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	IdentityRepo  repository.IdentityRepository
	ProviderRepo  repository.ProviderRepository
	MagicLinkRepo repository.MagicLinkRepository
	Hasher        service.PasswordHasher
	Logger        *slog.Logger
}

// NewOperatorService is the constructor for operatorService.
func NewOperatorService(params OperatorServiceParams) usecase.OperatorUsecase {
	return &operatorService{
		txManager:     params.TxManager,
		identityRepo:  params.IdentityRepo,
		providerRepo:  params.ProviderRepo,
		magicLinkRepo: params.MagicLinkRepo,
		hasher:        params.Hasher,
		logger:        params.Logger,
	}
}

// SeedAdmin creates the administrator or promotes an existing identity. An existing
// identity keeps its credentials; the password only applies to a new one and may be
// empty, leaving magic link and OAuth as its sign-in methods.
func (srv *operatorService) SeedAdmin(ctx context.Context, input usecase.SeedAdminInput) (*entity.Identity, bool, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, false, domainerrors.ErrValidationFailed.WithDetails("email is required")
	}

	var hash string
	if input.Password != "" {
		if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
			return nil, false, err
		}

		var err error
		hash, err = srv.hasher.Hash(input.Password)
		if err != nil {
			return nil, false, errors.Wrap(err, "failed to hash password")
		}
	}

	var (
		identity *entity.Identity
		created  bool
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.NewIdentityRepository()

		var err error
		identity, created, err = identityRepo.FindOrCreateByEmail(ctx, &entity.Identity{
			Email:          email,
			DisplayName:    strings.TrimSpace(input.DisplayName),
			CredentialHash: hash,
			Role:           entity.RoleAdmin,
		})
		if err != nil {
			return err
		}

		if created {
			if hash == "" {
				return nil
			}

			return repoFactory.NewProviderRepository().Link(ctx, &entity.LinkedProvider{
				IdentityID:        identity.ID,
				Provider:          entity.ProviderTypePassword,
				ProviderAccountID: identity.Email,
			})
		}

		if err := identityRepo.UpdateRole(ctx, identity.ID, entity.RoleAdmin); err != nil {
			return err
		}
		if err := identityRepo.SetBlocked(ctx, identity.ID, false); err != nil {
			return err
		}

		identity.Role = entity.RoleAdmin
		identity.IsBlocked = false

		return nil
	})
	if err != nil {
		return nil, false, mapStorageError(ctx, srv.logger, err, "seed admin")
	}

	srv.logger.Info("Administrator seeded",
		slog.String("identity_id", identity.ID.String()),
		slog.Bool("created", created),
	)

	return identity, created, nil
}

// SetRole changes the role of the identity owning email.
func (srv *operatorService) SetRole(ctx context.Context, email string, role entity.Role) (*entity.Identity, error) {
	if !role.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown role")
	}

	return srv.update(ctx, email, "set role", func(repo repository.IdentityRepository, identity *entity.Identity) error {
		if err := repo.UpdateRole(ctx, identity.ID, role); err != nil {
			return err
		}
		identity.Role = role

		return nil
	})
}

// SetBlocked blocks or unblocks the identity owning email.
func (srv *operatorService) SetBlocked(ctx context.Context, email string, blocked bool) (*entity.Identity, error) {
	return srv.update(ctx, email, "set blocked", func(repo repository.IdentityRepository, identity *entity.Identity) error {
		if err := repo.SetBlocked(ctx, identity.ID, blocked); err != nil {
			return err
		}
		identity.IsBlocked = blocked

		return nil
	})
}

// Lookup returns the identity owning email and its sign-in methods.
func (srv *operatorService) Lookup(ctx context.Context, email string) (*usecase.IdentityDetails, error) {
	return loadIdentityDetails(ctx, srv.logger, srv.identityRepo, srv.providerRepo, func() (*entity.Identity, error) {
		return srv.identityRepo.FindByEmail(ctx, entity.NormalizeEmail(email))
	})
}

// PurgeMagicLinks deletes tokens that expired before the given instant.
func (srv *operatorService) PurgeMagicLinks(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := srv.magicLinkRepo.DeleteExpired(ctx, before)
	if err != nil {
		return 0, mapStorageError(ctx, srv.logger, err, "purge magic links")
	}

	srv.logger.Info("Expired magic links purged", slog.Int64("deleted", deleted))

	return deleted, nil
}

func (srv *operatorService) update(
	ctx context.Context,
	email string,
	operation string,
	apply func(repo repository.IdentityRepository, identity *entity.Identity) error,
) (*entity.Identity, error) {
	var identity *entity.Identity
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		repo := repoFactory.NewIdentityRepository()

		var err error
		identity, err = repo.FindByEmail(ctx, entity.NormalizeEmail(email))
		if err != nil {
			return err
		}

		return apply(repo, identity)
	})
	if errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, domainerrors.ErrIdentityNotFound
	}
	if err != nil {
		return nil, mapStorageError(ctx, srv.logger, err, operation)
	}

	srv.logger.Info("Identity updated by operator",
		slog.String("identity_id", identity.ID.String()),
		slog.String("operation", operation),
	)

	return identity, nil
}
