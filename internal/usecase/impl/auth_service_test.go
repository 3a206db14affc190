package impl

import (
	"context"
	"net/url"
	"testing"
	"time"

	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/service"
	"academy/internal/errors"
	"academy/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a student and signs in", func(t *testing.T) {
		env := newTestEnv(t)

		result, err := env.auth.Signup(ctx, usecase.SignupInput{
			DisplayName: " Ada ",
			Email:       "Ada@Example.com",
			Password:    "correct-horse",
		})
		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", result.Identity.Email)
		assert.Equal(t, "Ada", result.Identity.DisplayName)
		assert.Equal(t, entity.RoleStudent, result.Identity.Role)
		assert.Equal(t, result.Identity.ID, result.Token.Session.SubjectID)
		assert.NotEmpty(t, result.Token.Raw)

		link, err := env.providerRepo.FindByAccount(ctx, entity.ProviderTypePassword, "ada@example.com")
		require.NoError(t, err)
		assert.Equal(t, result.Identity.ID, link.IdentityID)

		login, err := env.auth.Login(ctx, usecase.LoginInput{Email: "ada@example.com", Password: "correct-horse"})
		require.NoError(t, err)
		assert.Equal(t, result.Identity.ID, login.Identity.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		env := newTestEnv(t)
		env.createIdentity(t, "ada@example.com", "", entity.RoleStudent)

		_, err := env.auth.Signup(ctx, usecase.SignupInput{Email: "ADA@example.com", Password: "correct-horse"})
		assert.ErrorIs(t, err, domainerrors.ErrAccountConflict)
	})

	t.Run("weak password", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.auth.Signup(ctx, usecase.SignupInput{Email: "ada@example.com", Password: "short"})
		assert.ErrorIs(t, err, domainerrors.ErrPasswordStrength)
	})

	t.Run("missing email", func(t *testing.T) {
		env := newTestEnv(t)

		_, err := env.auth.Signup(ctx, usecase.SignupInput{Email: "  ", Password: "correct-horse"})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	created := env.createIdentity(t, "ada@example.com", "correct-horse", entity.RoleInstructor)

	result, err := env.auth.Login(ctx, usecase.LoginInput{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.Token.Session.SubjectID)
	assert.Equal(t, entity.RoleInstructor, result.Token.Session.Role)

	_, err = env.auth.Login(ctx, usecase.LoginInput{Email: "ada@example.com", Password: "nope-nope"})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)
}

func TestAuthService_RequestMagicLink(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes a link that signs in", func(t *testing.T) {
		env := newTestEnv(t)

		var published *service.MagicLinkEvent
		env.publisher.On("PublishMagicLink", mock.Anything, mock.AnythingOfType("*service.MagicLinkEvent")).
			Run(func(args mock.Arguments) {
				published = args.Get(1).(*service.MagicLinkEvent)
			}).
			Return(nil).
			Once()

		require.NoError(t, env.auth.RequestMagicLink(ctx, " New@Example.com "))
		env.publisher.AssertExpectations(t)

		require.NotNil(t, published)
		assert.Equal(t, "new@example.com", published.Email)
		assert.WithinDuration(t, time.Now().Add(env.cfg.Auth.MagicLinkTTL), published.ExpiresAt, time.Minute)

		link, err := url.Parse(published.URL)
		require.NoError(t, err)
		assert.Equal(t, "academy.test", link.Host)
		assert.Equal(t, MagicLinkVerifyPath, link.Path)

		result, err := env.auth.VerifyMagicLink(ctx, link.Query().Get("token"))
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", result.Identity.Email)
	})

	t.Run("delivery failure leaves the token unconsumed", func(t *testing.T) {
		env := newTestEnv(t)

		var published *service.MagicLinkEvent
		env.publisher.On("PublishMagicLink", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				published = args.Get(1).(*service.MagicLinkEvent)
			}).
			Return(errors.New("broker down")).
			Once()

		err := env.auth.RequestMagicLink(ctx, "new@example.com")
		assert.ErrorIs(t, err, domainerrors.ErrDeliveryFailed)

		link, parseErr := url.Parse(published.URL)
		require.NoError(t, parseErr)

		token, err := env.magicLinkRepo.FindByHash(ctx, hashMagicLinkToken(link.Query().Get("token")))
		require.NoError(t, err)
		assert.Nil(t, token.ConsumedAt)
	})

	t.Run("invalid email", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.auth.RequestMagicLink(ctx, "")
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
		env.publisher.AssertNotCalled(t, "PublishMagicLink", mock.Anything, mock.Anything)
	})
}

func TestAuthService_OAuthLogin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	result, err := env.auth.OAuthLogin(ctx, &service.OAuthUser{
		ID:            "google-sub",
		Email:         "grace@example.com",
		Name:          "Grace",
		Provider:      entity.OAuthProvider("google"),
		EmailVerified: true,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.RoleStudent, result.Token.Session.Role)

	_, err = env.auth.OAuthLogin(ctx, nil)
	assert.ErrorIs(t, err, domainerrors.ErrOAuthTokenInvalid)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	created := env.createIdentity(t, "ada@example.com", "correct-horse", entity.RoleStudent)

	result, err := env.auth.Login(ctx, usecase.LoginInput{Email: "ada@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	require.NoError(t, env.identityRepo.UpdateRole(ctx, created.ID, entity.RoleInstructor))

	refreshed, err := env.auth.Refresh(ctx, result.Token.Raw)
	require.NoError(t, err)
	assert.Equal(t, entity.RoleInstructor, refreshed.Session.Role)
	assert.NotEqual(t, result.Token.Session.TokenID, refreshed.Session.TokenID)
}
