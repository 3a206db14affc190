package impl

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"academy/config"
	"academy/internal/domain/entity"
	"academy/internal/domain/repository"
	"academy/internal/domain/service"
	"academy/internal/infra/auth"
	"academy/internal/infra/persistence/postgres"
	"academy/internal/infra/persistence/sqlitetest"
	"academy/internal/usecase"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.HTTP.PublicBaseURL = "https://academy.test/"
	cfg.Session = &config.SessionConfig{
		Secret:     "test-secret-test-secret-test-secret",
		Issuer:     "academy-test",
		TTL:        time.Hour,
		CookieName: "academy.session-token",
	}
	cfg.Auth = &config.AuthConfig{
		BcryptCost:        4,
		PasswordMinLength: 8,
		MagicLinkTTL:      15 * time.Minute,
		OAuthStateTTL:     10 * time.Minute,
	}

	return cfg
}

// mockEventPublisher is a testify mock of service.EventPublisher.
type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishMagicLink(ctx context.Context, event *service.MagicLinkEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *mockEventPublisher) Close() error {
	return m.Called().Error(0)
}

// countingHasher counts Check calls so timing-equalization paths can be asserted.
type countingHasher struct {
	service.PasswordHasher
	checks atomic.Int32
}

func (h *countingHasher) Check(password, hash string) bool {
	h.checks.Add(1)

	return h.PasswordHasher.Check(password, hash)
}

type testEnv struct {
	db            *gorm.DB
	cfg           *config.Config
	logger        *slog.Logger
	txManager     repository.TransactionManager
	identityRepo  repository.IdentityRepository
	providerRepo  repository.ProviderRepository
	magicLinkRepo repository.MagicLinkRepository
	hasher        *countingHasher
	tokens        service.SessionTokenService
	publisher     *mockEventPublisher
	verifier      usecase.CredentialVerifier
	issuer        usecase.SessionIssuer
	reader        usecase.SessionReader
	auth          usecase.AuthUsecase
	admin         usecase.IdentityAdminUsecase
	operator      usecase.OperatorUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := sqlitetest.New(t)
	cfg := newTestConfig()
	logger := newDiscardLogger()

	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	env := &testEnv{
		db:            db,
		cfg:           cfg,
		logger:        logger,
		txManager:     postgres.NewTransactionManager(db),
		identityRepo:  postgres.NewIdentityRepository(db),
		providerRepo:  postgres.NewProviderRepository(db),
		magicLinkRepo: postgres.NewMagicLinkRepository(db),
		hasher:        &countingHasher{PasswordHasher: auth.NewBcryptHasher(cfg)},
		tokens:        tokens,
		publisher:     &mockEventPublisher{},
	}

	env.verifier, err = NewCredentialVerifier(CredentialVerifierParams{
		TxManager:    env.txManager,
		IdentityRepo: env.identityRepo,
		Hasher:       env.hasher,
		Logger:       logger,
	})
	require.NoError(t, err)

	env.issuer = NewSessionIssuer(SessionIssuerParams{
		IdentityRepo: env.identityRepo,
		Tokens:       tokens,
		Logger:       logger,
	})
	env.reader = NewSessionReader(SessionReaderParams{
		IdentityRepo: env.identityRepo,
		Tokens:       tokens,
		Logger:       logger,
	})
	env.auth = NewAuthService(AuthServiceParams{
		TxManager:     env.txManager,
		MagicLinkRepo: env.magicLinkRepo,
		Verifier:      env.verifier,
		Issuer:        env.issuer,
		Hasher:        env.hasher,
		Publisher:     env.publisher,
		Config:        cfg,
		Logger:        logger,
	})
	env.admin = NewIdentityAdminService(IdentityAdminServiceParams{
		IdentityRepo: env.identityRepo,
		ProviderRepo: env.providerRepo,
		Logger:       logger,
	})
	env.operator = NewOperatorService(OperatorServiceParams{
		TxManager:     env.txManager,
		IdentityRepo:  env.identityRepo,
		ProviderRepo:  env.providerRepo,
		MagicLinkRepo: env.magicLinkRepo,
		Hasher:        env.hasher,
		Logger:        logger,
	})

	return env
}

// createIdentity stores an identity with a password provider when password is set.
func (env *testEnv) createIdentity(t *testing.T, email, password string, role entity.Role) *entity.Identity {
	t.Helper()

	identity := &entity.Identity{Email: email, Role: role}
	if password != "" {
		hash, err := env.hasher.Hash(password)
		require.NoError(t, err)
		identity.CredentialHash = hash
	}

	ctx := context.Background()
	require.NoError(t, env.identityRepo.Create(ctx, identity))

	if password != "" {
		require.NoError(t, env.providerRepo.Link(ctx, &entity.LinkedProvider{
			IdentityID:        identity.ID,
			Provider:          entity.ProviderTypePassword,
			ProviderAccountID: identity.Email,
		}))
	}

	return identity
}

// storeMagicLink stores a token for email and returns the raw value.
func (env *testEnv) storeMagicLink(t *testing.T, email string, expiresAt time.Time) string {
	t.Helper()

	raw, err := generateMagicLinkToken()
	require.NoError(t, err)

	require.NoError(t, env.magicLinkRepo.Create(context.Background(), &entity.MagicLinkToken{
		Email:     email,
		TokenHash: hashMagicLinkToken(raw),
		ExpiresAt: expiresAt,
	}))

	return raw
}

func (env *testEnv) sessionFor(t *testing.T, identity *entity.Identity) *entity.Session {
	t.Helper()

	token, err := env.issuer.Issue(context.Background(), identity)
	require.NoError(t, err)

	return &token.Session
}
