package postgres

import (
	"context"
	"time"

	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/errors"
	"academy/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// magicLinkRepository implements the repository.MagicLinkRepository interface using GORM.
type magicLinkRepository struct {
	db *gorm.DB
}

// NewMagicLinkRepository is the constructor for magicLinkRepository.
func NewMagicLinkRepository(db *gorm.DB) repository.MagicLinkRepository {
	return &magicLinkRepository{db: db}
}

// Create persists a new token hash.
func (repo *magicLinkRepository) Create(ctx context.Context, token *entity.MagicLinkToken) error {
	tokenM := fromMagicLinkDomain(token)

	if err := repo.db.WithContext(ctx).Create(tokenM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create magic link token")
	}

	*token = *toMagicLinkDomain(tokenM)

	return nil
}

// FindByHash retrieves a token by the hash of its raw value.
func (repo *magicLinkRepository) FindByHash(ctx context.Context, tokenHash string) (*entity.MagicLinkToken, error) {
	var tokenM model.MagicLinkTokenModel
	if err := repo.db.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&tokenM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMagicLinkNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find magic link token")
	}

	return toMagicLinkDomain(&tokenM), nil
}

// MarkConsumed is a compare-and-set on consumed_at: exactly one caller sees true.
func (repo *magicLinkRepository) MarkConsumed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.MagicLinkTokenModel{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", at.UTC())
	if result.Error != nil {
		return false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to consume magic link token")
	}

	return result.RowsAffected == 1, nil
}

// DeleteExpired removes tokens whose expiry is before the cutoff.
func (repo *magicLinkRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result := repo.db.WithContext(ctx).
		Where("expires_at < ?", before.UTC()).
		Delete(&model.MagicLinkTokenModel{})
	if result.Error != nil {
		return 0, domainerrors.NewDatabaseExecuteError(result.Error, "failed to delete expired magic link tokens")
	}

	return result.RowsAffected, nil
}

// --- Mapper Functions ---

func toMagicLinkDomain(data *model.MagicLinkTokenModel) *entity.MagicLinkToken {
	if data == nil {
		return nil
	}

	return &entity.MagicLinkToken{
		ID:         data.ID,
		Email:      data.Email,
		TokenHash:  data.TokenHash,
		ExpiresAt:  data.ExpiresAt,
		ConsumedAt: data.ConsumedAt,
		CreatedAt:  data.CreatedAt,
	}
}

func fromMagicLinkDomain(data *entity.MagicLinkToken) *model.MagicLinkTokenModel {
	if data == nil {
		return nil
	}

	return &model.MagicLinkTokenModel{
		ID:         data.ID,
		Email:      entity.NormalizeEmail(data.Email),
		TokenHash:  data.TokenHash,
		ExpiresAt:  data.ExpiresAt.UTC(),
		ConsumedAt: data.ConsumedAt,
		CreatedAt:  data.CreatedAt,
	}
}
