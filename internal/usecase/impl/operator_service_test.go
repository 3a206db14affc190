package impl

import (
	"context"
	"testing"
	"time"

	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginOf(email, password string) usecase.LoginInput {
	return usecase.LoginInput{Email: email, Password: password}
}

func TestOperatorService_SeedAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates an administrator with a password", func(t *testing.T) {
		env := newTestEnv(t)

		identity, created, err := env.operator.SeedAdmin(ctx, usecase.SeedAdminInput{
			Email:    "Root@Example.com",
			Password: "correct-horse",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, entity.RoleAdmin, identity.Role)

		result, err := env.auth.Login(ctx, loginOf("root@example.com", "correct-horse"))
		require.NoError(t, err)
		assert.Equal(t, entity.RoleAdmin, result.Token.Session.Role)
	})

	t.Run("promotes and unblocks an existing identity", func(t *testing.T) {
		env := newTestEnv(t)
		existing := env.createIdentity(t, "root@example.com", "old-password", entity.RoleStudent)
		require.NoError(t, env.identityRepo.SetBlocked(ctx, existing.ID, true))

		identity, created, err := env.operator.SeedAdmin(ctx, usecase.SeedAdminInput{Email: "root@example.com"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, existing.ID, identity.ID)

		stored, err := env.identityRepo.FindByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.RoleAdmin, stored.Role)
		assert.False(t, stored.IsBlocked)

		_, err = env.auth.Login(ctx, loginOf("root@example.com", "old-password"))
		assert.NoError(t, err)
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		env := newTestEnv(t)

		_, _, err := env.operator.SeedAdmin(ctx, usecase.SeedAdminInput{Email: "root@example.com", Password: "short"})
		assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
	})
}

func TestOperatorService_SetRoleAndBlock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createIdentity(t, "ada@example.com", "", entity.RoleStudent)

	identity, err := env.operator.SetRole(ctx, "ADA@example.com", entity.RoleInstructor)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, identity.Role)

	identity, err = env.operator.SetBlocked(ctx, "ada@example.com", true)
	require.NoError(t, err)
	assert.True(t, identity.IsBlocked)

	_, err = env.operator.SetRole(ctx, "missing@example.com", entity.RoleAdmin)
	assert.ErrorIs(t, err, domainerrors.ErrIdentityNotFound)

	_, err = env.operator.SetRole(ctx, "ada@example.com", entity.Role("ROOT"))
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestOperatorService_LookupAndPurge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.createIdentity(t, "ada@example.com", "correct-horse", entity.RoleStudent)

	details, err := env.operator.Lookup(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, details.Providers, 1)

	_, err = env.operator.Lookup(ctx, "missing@example.com")
	assert.ErrorIs(t, err, domainerrors.ErrIdentityNotFound)

	env.storeMagicLink(t, "ada@example.com", time.Now().Add(-time.Hour))
	env.storeMagicLink(t, "ada@example.com", time.Now().Add(time.Hour))

	deleted, err := env.operator.PurgeMagicLinks(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}
