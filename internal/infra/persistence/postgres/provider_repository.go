package postgres

import (
	"context"

	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/errors"
	"academy/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// providerRepository implements the repository.ProviderRepository interface using GORM.
type providerRepository struct {
	db *gorm.DB
}

// NewProviderRepository is the constructor for providerRepository.
func NewProviderRepository(db *gorm.DB) repository.ProviderRepository {
	return &providerRepository{db: db}
}

// Link inserts the binding unless an equivalent one exists. When the insert is skipped the
// current owner of the account decides between a no-op and ErrProviderConflict.
func (repo *providerRepository) Link(ctx context.Context, link *entity.LinkedProvider) error {
	linkM := fromProviderDomain(link)

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(linkM)
	if result.Error != nil {
		if isForeignKeyConstraintViolation(result.Error) {
			return repository.ErrIdentityNotFound
		}

		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to link provider")
	}

	if result.RowsAffected == 1 {
		*link = *toProviderDomain(linkM)

		return nil
	}

	owner, err := repo.FindByAccount(ctx, link.Provider, link.ProviderAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrProviderNotFound) {
			// The account is free, so the identity already holds another account for this provider.
			return repository.ErrProviderConflict
		}

		return err
	}

	if owner.IdentityID != link.IdentityID {
		return repository.ErrProviderConflict
	}

	*link = *owner

	return nil
}

// FindByAccount retrieves the binding of a provider account.
func (repo *providerRepository) FindByAccount(ctx context.Context, provider entity.ProviderType, accountID string) (*entity.LinkedProvider, error) {
	return repo.findOne(ctx, "provider = ? AND provider_account_id = ?", provider.String(), accountID)
}

// FindByIdentityAndProvider retrieves the account an identity holds for a provider.
func (repo *providerRepository) FindByIdentityAndProvider(ctx context.Context, identityID uuid.UUID, provider entity.ProviderType) (*entity.LinkedProvider, error) {
	return repo.findOne(ctx, "identity_id = ? AND provider = ?", identityID, provider.String())
}

// ListByIdentity returns every binding of an identity, oldest first.
func (repo *providerRepository) ListByIdentity(ctx context.Context, identityID uuid.UUID) ([]*entity.LinkedProvider, error) {
	var linkMs []*model.LinkedProviderModel
	if err := repo.db.WithContext(ctx).
		Where("identity_id = ?", identityID).
		Order("created_at").
		Find(&linkMs).Error; err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to list linked providers")
	}

	links := make([]*entity.LinkedProvider, 0, len(linkMs))
	for _, linkM := range linkMs {
		links = append(links, toProviderDomain(linkM))
	}

	return links, nil
}

func (repo *providerRepository) findOne(ctx context.Context, query string, args ...any) (*entity.LinkedProvider, error) {
	var linkM model.LinkedProviderModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&linkM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProviderNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find linked provider")
	}

	return toProviderDomain(&linkM), nil
}

// --- Mapper Functions ---

func toProviderDomain(data *model.LinkedProviderModel) *entity.LinkedProvider {
	if data == nil {
		return nil
	}

	return &entity.LinkedProvider{
		ID:                data.ID,
		IdentityID:        data.IdentityID,
		Provider:          entity.ProviderType(data.Provider),
		ProviderAccountID: data.ProviderAccountID,
		CreatedAt:         data.CreatedAt,
	}
}

func fromProviderDomain(data *entity.LinkedProvider) *model.LinkedProviderModel {
	if data == nil {
		return nil
	}

	return &model.LinkedProviderModel{
		ID:                data.ID,
		IdentityID:        data.IdentityID,
		Provider:          data.Provider.String(),
		ProviderAccountID: data.ProviderAccountID,
		CreatedAt:         data.CreatedAt,
	}
}
