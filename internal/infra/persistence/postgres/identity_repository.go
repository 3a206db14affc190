// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
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
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// identityRepository implements the repository.IdentityRepository interface using GORM.
type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository is the constructor for identityRepository.
func NewIdentityRepository(db *gorm.DB) repository.IdentityRepository {
	return &identityRepository{db: db}
}

// FindByID retrieves a single identity by its ID.
func (repo *identityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	return repo.findOne(repo.db.WithContext(ctx), "id = ?", id)
}

// FindByIDFresh reads from the primary so a role change or block committed a moment ago is visible.
func (repo *identityRepository) FindByIDFresh(ctx context.Context, id uuid.UUID) (*entity.Identity, error) {
	return repo.findOne(repo.db.WithContext(ctx).Clauses(dbresolver.Write), "id = ?", id)
}

// FindByEmail retrieves a single identity by its normalized email.
func (repo *identityRepository) FindByEmail(ctx context.Context, email string) (*entity.Identity, error) {
	return repo.findOne(repo.db.WithContext(ctx), "email = ?", entity.NormalizeEmail(email))
}

// Create persists a new identity and copies back the generated fields.
func (repo *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	identityM := fromIdentityDomain(identity)

	if err := repo.db.WithContext(ctx).Create(identityM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrIdentityAlreadyExists
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create identity")
	}

	*identity = *toIdentityDomain(identityM)

	return nil
}

// FindOrCreateByEmail inserts with ON CONFLICT DO NOTHING and then reads the row back,
// so a caller that loses the insert race gets the winner's identity.
func (repo *identityRepository) FindOrCreateByEmail(ctx context.Context, template *entity.Identity) (*entity.Identity, bool, error) {
	identityM := fromIdentityDomain(template)

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(identityM)
	if result.Error != nil {
		return nil, false, domainerrors.NewDatabaseExecuteError(result.Error, "failed to insert identity")
	}

	if result.RowsAffected == 1 {
		return toIdentityDomain(identityM), true, nil
	}

	existing, err := repo.findOne(repo.db.WithContext(ctx).Clauses(dbresolver.Write), "email = ?", identityM.Email)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

// UpdateRole replaces the role of an identity.
func (repo *identityRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entity.Role) error {
	if !role.IsValid() {
		return errors.Wrapf(entity.ErrUnknownRole, "role %q", role)
	}

	return repo.updateColumns(ctx, id, map[string]any{"role": role.String()}, "failed to update identity role")
}

// SetBlocked blocks or unblocks an identity.
func (repo *identityRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	return repo.updateColumns(ctx, id, map[string]any{"is_blocked": blocked}, "failed to update identity block state")
}

// MarkEmailVerified only touches rows whose email is still unverified, keeping the first verification time.
func (repo *identityRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()

	result := repo.db.WithContext(ctx).
		Model(&model.IdentityModel{}).
		Where("id = ? AND email_verified_at IS NULL", id).
		Updates(map[string]any{"email_verified_at": now, "updated_at": now})
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to mark email verified")
	}

	if result.RowsAffected == 0 {
		// Either already verified or missing; only the latter is an error.
		if _, err := repo.findOne(repo.db.WithContext(ctx), "id = ?", id); err != nil {
			return err
		}
	}

	return nil
}

func (repo *identityRepository) updateColumns(ctx context.Context, id uuid.UUID, columns map[string]any, failure string) error {
	columns["updated_at"] = time.Now().UTC()

	result := repo.db.WithContext(ctx).
		Model(&model.IdentityModel{}).
		Where("id = ?", id).
		Updates(columns)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, failure)
	}

	if result.RowsAffected == 0 {
		return repository.ErrIdentityNotFound
	}

	return nil
}

func (repo *identityRepository) findOne(db *gorm.DB, query string, args ...any) (*entity.Identity, error) {
	var identityM model.IdentityModel
	if err := db.Where(query, args...).First(&identityM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrIdentityNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find identity")
	}

	return toIdentityDomain(&identityM), nil
}

// --- Mapper Functions ---

// toIdentityDomain converts an IdentityModel to a domain Identity. Stored roles are
// normalized here; an unrecognized value degrades to STUDENT, the least privileged role.
func toIdentityDomain(data *model.IdentityModel) *entity.Identity {
	if data == nil {
		return nil
	}

	role, err := entity.ParseRole(data.Role)
	if err != nil {
		role = entity.RoleStudent
	}

	return &entity.Identity{
		ID:              data.ID,
		Email:           data.Email,
		DisplayName:     data.DisplayName,
		CredentialHash:  data.CredentialHash,
		Role:            role,
		EmailVerifiedAt: data.EmailVerifiedAt,
		IsBlocked:       data.IsBlocked,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

// fromIdentityDomain converts a domain Identity to an IdentityModel for persistence.
func fromIdentityDomain(data *entity.Identity) *model.IdentityModel {
	if data == nil {
		return nil
	}

	role := data.Role
	if role == "" {
		role = entity.RoleStudent
	}

	return &model.IdentityModel{
		ID:              data.ID,
		Email:           entity.NormalizeEmail(data.Email),
		DisplayName:     data.DisplayName,
		CredentialHash:  data.CredentialHash,
		Role:            role.String(),
		EmailVerifiedAt: data.EmailVerifiedAt,
		IsBlocked:       data.IsBlocked,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}
