package postgres

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"academy/internal/domain/entity"
	"academy/internal/domain/repository"
	"academy/internal/errors"
	"academy/internal/infra/persistence/sqlitetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestIdentityRepository_CreateNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(sqlitetest.New(t))

	identity := &entity.Identity{Email: "  Ana@Academy.DEV ", DisplayName: "Ana", Role: entity.RoleStudent}
	require.NoError(t, repo.Create(ctx, identity))
	assert.NotEqual(t, uuid.Nil, identity.ID)
	assert.Equal(t, "ana@academy.dev", identity.Email)

	found, err := repo.FindByEmail(ctx, "ANA@academy.dev")
	require.NoError(t, err)
	assert.Equal(t, identity.ID, found.ID)
	assert.Equal(t, entity.RoleStudent, found.Role)

	err = repo.Create(ctx, &entity.Identity{Email: "ana@ACADEMY.dev", Role: entity.RoleStudent})
	assert.ErrorIs(t, err, repository.ErrIdentityAlreadyExists)
}

func TestIdentityRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(sqlitetest.New(t))

	_, err := repo.FindByEmail(ctx, "nobody@academy.dev")
	assert.ErrorIs(t, err, repository.ErrIdentityNotFound)

	_, err = repo.FindByIDFresh(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrIdentityNotFound)

	assert.ErrorIs(t, repo.SetBlocked(ctx, uuid.New(), true), repository.ErrIdentityNotFound)
	assert.ErrorIs(t, repo.MarkEmailVerified(ctx, uuid.New()), repository.ErrIdentityNotFound)
}

func TestIdentityRepository_StoredRoleIsNormalized(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	repo := NewIdentityRepository(db)

	identity := &entity.Identity{Email: "legacy@academy.dev", Role: entity.RoleStudent}
	require.NoError(t, repo.Create(ctx, identity))

	// Rows written by older tooling may carry lower-case roles.
	require.NoError(t, db.Exec("UPDATE identities SET role = ? WHERE id = ?", "admin", identity.ID).Error)

	found, err := repo.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleAdmin, found.Role)
}

func TestIdentityRepository_UpdateRoleAndBlock(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(sqlitetest.New(t))

	identity := &entity.Identity{Email: "ben@academy.dev", Role: entity.RoleStudent}
	require.NoError(t, repo.Create(ctx, identity))

	require.NoError(t, repo.UpdateRole(ctx, identity.ID, entity.RoleInstructor))
	require.NoError(t, repo.SetBlocked(ctx, identity.ID, true))

	found, err := repo.FindByIDFresh(ctx, identity.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, found.Role)
	assert.True(t, found.IsBlocked)

	assert.ErrorIs(t, repo.UpdateRole(ctx, identity.ID, entity.Role("ROOT")), entity.ErrUnknownRole)
}

func TestIdentityRepository_MarkEmailVerifiedKeepsFirstTime(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(sqlitetest.New(t))

	identity := &entity.Identity{Email: "cai@academy.dev", Role: entity.RoleStudent}
	require.NoError(t, repo.Create(ctx, identity))

	require.NoError(t, repo.MarkEmailVerified(ctx, identity.ID))
	first, err := repo.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	require.NotNil(t, first.EmailVerifiedAt)

	require.NoError(t, repo.MarkEmailVerified(ctx, identity.ID))
	second, err := repo.FindByID(ctx, identity.ID)
	require.NoError(t, err)
	assert.True(t, first.EmailVerifiedAt.Equal(*second.EmailVerifiedAt))
}

func TestIdentityRepository_FindOrCreateByEmailConcurrent(t *testing.T) {
	ctx := context.Background()
	repo := NewIdentityRepository(sqlitetest.New(t))

	const callers = 8
	ids := make([]uuid.UUID, callers)
	var created atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	for i := range callers {
		g.Go(func() error {
			identity, isNew, err := repo.FindOrCreateByEmail(gctx, &entity.Identity{Email: "Race@Academy.dev", Role: entity.RoleStudent})
			if err != nil {
				return err
			}
			if isNew {
				created.Add(1)
			}
			ids[i] = identity.ID

			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestProviderRepository_Link(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	identities := NewIdentityRepository(db)
	providers := NewProviderRepository(db)

	ana := &entity.Identity{Email: "ana@academy.dev", Role: entity.RoleStudent}
	ben := &entity.Identity{Email: "ben@academy.dev", Role: entity.RoleStudent}
	require.NoError(t, identities.Create(ctx, ana))
	require.NoError(t, identities.Create(ctx, ben))

	google := entity.OAuthProvider("google")

	link := &entity.LinkedProvider{IdentityID: ana.ID, Provider: google, ProviderAccountID: "sub-1"}
	require.NoError(t, providers.Link(ctx, link))
	assert.NotEqual(t, uuid.Nil, link.ID)

	// Same pair again is a no-op.
	require.NoError(t, providers.Link(ctx, &entity.LinkedProvider{IdentityID: ana.ID, Provider: google, ProviderAccountID: "sub-1"}))

	// The account belongs to ana.
	err := providers.Link(ctx, &entity.LinkedProvider{IdentityID: ben.ID, Provider: google, ProviderAccountID: "sub-1"})
	assert.ErrorIs(t, err, repository.ErrProviderConflict)

	// ana already holds a google account.
	err = providers.Link(ctx, &entity.LinkedProvider{IdentityID: ana.ID, Provider: google, ProviderAccountID: "sub-2"})
	assert.ErrorIs(t, err, repository.ErrProviderConflict)

	found, err := providers.FindByAccount(ctx, google, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, found.IdentityID)

	_, err = providers.FindByIdentityAndProvider(ctx, ben.ID, google)
	assert.ErrorIs(t, err, repository.ErrProviderNotFound)

	require.NoError(t, providers.Link(ctx, &entity.LinkedProvider{IdentityID: ana.ID, Provider: entity.ProviderTypePassword, ProviderAccountID: ana.Email}))
	links, err := providers.ListByIdentity(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, links, 2)
}

func TestMagicLinkRepository_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewMagicLinkRepository(sqlitetest.New(t))

	token := &entity.MagicLinkToken{Email: "Ana@academy.dev", TokenHash: "hash-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, token))
	assert.Equal(t, "ana@academy.dev", token.Email)

	found, err := repo.FindByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.True(t, found.IsUsable(time.Now()))

	var wins atomic.Int32
	var g errgroup.Group
	for range 5 {
		g.Go(func() error {
			ok, err := repo.MarkConsumed(ctx, token.ID, time.Now())
			if ok {
				wins.Add(1)
			}

			return err
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), wins.Load())

	found, err = repo.FindByHash(ctx, "hash-1")
	require.NoError(t, err)
	assert.NotNil(t, found.ConsumedAt)
	assert.False(t, found.IsUsable(time.Now()))

	_, err = repo.FindByHash(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrMagicLinkNotFound)
}

func TestMagicLinkRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewMagicLinkRepository(sqlitetest.New(t))

	now := time.Now()
	require.NoError(t, repo.Create(ctx, &entity.MagicLinkToken{Email: "a@academy.dev", TokenHash: "old", ExpiresAt: now.Add(-2 * time.Hour)}))
	require.NoError(t, repo.Create(ctx, &entity.MagicLinkToken{Email: "a@academy.dev", TokenHash: "fresh", ExpiresAt: now.Add(2 * time.Hour)}))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = repo.FindByHash(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrMagicLinkNotFound)
	_, err = repo.FindByHash(ctx, "fresh")
	assert.NoError(t, err)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := sqlitetest.New(t)
	txManager := NewTransactionManager(db)
	boom := errors.New("boom")

	err := txManager.Execute(ctx, func(factory repository.RepositoryFactory) error {
		if err := factory.NewIdentityRepository().Create(ctx, &entity.Identity{Email: "tx@academy.dev", Role: entity.RoleStudent}); err != nil {
			return err
		}

		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewIdentityRepository(db).FindByEmail(ctx, "tx@academy.dev")
	assert.ErrorIs(t, err, repository.ErrIdentityNotFound)
}

func TestIsUniqueConstraintViolation(t *testing.T) {
	assert.False(t, isUniqueConstraintViolation(nil))
	assert.True(t, isUniqueConstraintViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_identities_email" (SQLSTATE 23505)`)))
	assert.True(t, isUniqueConstraintViolation(errors.New("constraint failed: UNIQUE constraint failed: identities.email (2067)")))
	assert.False(t, isUniqueConstraintViolation(errors.New("connection refused")))
}
