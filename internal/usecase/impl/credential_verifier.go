package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/domain/service"
	"academy/internal/errors"
	"academy/internal/usecase"

	"go.uber.org/fx"
)

// credentialVerifier implements usecase.CredentialVerifier for every strategy.
type credentialVerifier struct {
	txManager    repository.TransactionManager
	identityRepo repository.IdentityRepository
	hasher       service.PasswordHasher
	dummyHash    string
	now          func() time.Time
	logger       *slog.Logger
}

// CredentialVerifierParams holds dependencies for the verifier, injected by Fx.
type CredentialVerifierParams struct {
	fx.In

	TxManager    repository.TransactionManager
	IdentityRepo repository.IdentityRepository
	Hasher       service.PasswordHasher
	Logger       *slog.Logger
}

// NewCredentialVerifier builds the verifier. A dummy hash with the hasher's cost is
// computed once so unknown emails pay the same comparison cost as wrong passwords.
func NewCredentialVerifier(params CredentialVerifierParams) (usecase.CredentialVerifier, error) {
	seed, err := generateMagicLinkToken()
	if err != nil {
		return nil, err
	}

	dummyHash, err := params.Hasher.Hash(seed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to prepare dummy hash")
	}

	return &credentialVerifier{
		txManager:    params.TxManager,
		identityRepo: params.IdentityRepo,
		hasher:       params.Hasher,
		dummyHash:    dummyHash,
		now:          time.Now,
		logger:       params.Logger,
	}, nil
}

func (srv *credentialVerifier) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Verify dispatches on the credentials variant.
func (srv *credentialVerifier) Verify(ctx context.Context, credentials usecase.Credentials) (*entity.Identity, error) {
	var (
		identity *entity.Identity
		err      error
	)

	switch c := credentials.(type) {
	case usecase.PasswordCredentials:
		identity, err = srv.verifyPassword(ctx, c)
	case usecase.MagicLinkCredentials:
		identity, err = srv.verifyMagicLink(ctx, c)
	case usecase.OAuthCredentials:
		identity, err = srv.verifyOAuth(ctx, c)
	default:
		return nil, domainerrors.ErrAuthInternalError.WrapMessage("unsupported credentials")
	}

	if err != nil {
		srv.log(ctx).Info("Credential verification failed",
			slog.String("strategy", usecase.StrategyOf(credentials).String()),
			slog.String("error", err.Error()),
		)

		return nil, err
	}

	return identity, nil
}

func (srv *credentialVerifier) verifyPassword(ctx context.Context, c usecase.PasswordCredentials) (*entity.Identity, error) {
	identity, err := srv.identityRepo.FindByEmail(ctx, entity.NormalizeEmail(c.Email))
	if err != nil && !errors.Is(err, repository.ErrIdentityNotFound) {
		return nil, mapStorageError(ctx, srv.logger, err, "find identity for password login")
	}

	hash := srv.dummyHash
	if identity != nil && identity.HasPassword() {
		hash = identity.CredentialHash
	}

	// The comparison always runs, so a missing identity costs the same as a wrong password.
	matched := srv.hasher.Check(c.Password, hash)

	if identity == nil || !identity.HasPassword() || !matched {
		return nil, domainerrors.ErrInvalidCredentials
	}

	if identity.IsBlocked {
		return nil, domainerrors.ErrAccountBlocked
	}

	return identity, nil
}

// verifyMagicLink consumes the token and resolves its email in one transaction. The blocked
// check runs after commit so the token stays consumed even for blocked identities.
func (srv *credentialVerifier) verifyMagicLink(ctx context.Context, c usecase.MagicLinkCredentials) (*entity.Identity, error) {
	raw := strings.TrimSpace(c.Token)
	if raw == "" {
		return nil, domainerrors.ErrExpiredOrUsedToken
	}

	now := srv.now()

	var identity *entity.Identity
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		tokenRepo := repoFactory.NewMagicLinkRepository()
		identityRepo := repoFactory.NewIdentityRepository()
		providerRepo := repoFactory.NewProviderRepository()

		token, err := tokenRepo.FindByHash(ctx, hashMagicLinkToken(raw))
		if errors.Is(err, repository.ErrMagicLinkNotFound) {
			return domainerrors.ErrExpiredOrUsedToken
		}
		if err != nil {
			return err
		}

		if !token.IsUsable(now) {
			return domainerrors.ErrExpiredOrUsedToken
		}

		won, err := tokenRepo.MarkConsumed(ctx, token.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return domainerrors.ErrExpiredOrUsedToken
		}

		found, _, err := identityRepo.FindOrCreateByEmail(ctx, &entity.Identity{
			Email: token.Email,
			Role:  entity.RoleStudent,
		})
		if err != nil {
			return err
		}

		if err := providerRepo.Link(ctx, &entity.LinkedProvider{
			IdentityID:        found.ID,
			Provider:          entity.ProviderTypeMagicLink,
			ProviderAccountID: found.Email,
		}); err != nil {
			return err
		}

		if !found.IsEmailVerified() {
			if err := identityRepo.MarkEmailVerified(ctx, found.ID); err != nil {
				return err
			}
			verifiedAt := now
			found.EmailVerifiedAt = &verifiedAt
		}

		identity = found

		return nil
	})
	if err != nil {
		return nil, mapStorageError(ctx, srv.logger, err, "verify magic link")
	}

	if identity.IsBlocked {
		return nil, domainerrors.ErrAccountBlocked
	}

	return identity, nil
}

// verifyOAuth resolves a provider account. A known account maps straight to its identity.
// An unknown account is linked to the identity owning the email only when the provider
// vouches for that email and the identity holds no other account at the provider.
func (srv *credentialVerifier) verifyOAuth(ctx context.Context, c usecase.OAuthCredentials) (*entity.Identity, error) {
	email := entity.NormalizeEmail(c.Email)
	if !c.Provider.IsOAuth() || strings.TrimSpace(c.ProviderAccountID) == "" || email == "" {
		return nil, domainerrors.ErrInvalidCredentials
	}

	now := srv.now()

	var identity *entity.Identity
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		identityRepo := repoFactory.NewIdentityRepository()
		providerRepo := repoFactory.NewProviderRepository()

		link, err := providerRepo.FindByAccount(ctx, c.Provider, c.ProviderAccountID)
		switch {
		case err == nil:
			identity, err = identityRepo.FindByID(ctx, link.IdentityID)
			if err != nil {
				return err
			}
		case errors.Is(err, repository.ErrProviderNotFound):
			identity, err = srv.linkOAuthAccount(ctx, identityRepo, providerRepo, c, email)
			if err != nil {
				return err
			}
		default:
			return err
		}

		if c.EmailVerified && !identity.IsEmailVerified() && identity.Email == email {
			if err := identityRepo.MarkEmailVerified(ctx, identity.ID); err != nil {
				return err
			}
			verifiedAt := now
			identity.EmailVerifiedAt = &verifiedAt
		}

		return nil
	})
	if err != nil {
		return nil, mapStorageError(ctx, srv.logger, err, "verify oauth account")
	}

	if identity.IsBlocked {
		return nil, domainerrors.ErrAccountBlocked
	}

	return identity, nil
}

func (srv *credentialVerifier) linkOAuthAccount(
	ctx context.Context,
	identityRepo repository.IdentityRepository,
	providerRepo repository.ProviderRepository,
	c usecase.OAuthCredentials,
	email string,
) (*entity.Identity, error) {
	identity, created, err := identityRepo.FindOrCreateByEmail(ctx, &entity.Identity{
		Email:       email,
		DisplayName: strings.TrimSpace(c.DisplayName),
		Role:        entity.RoleStudent,
	})
	if err != nil {
		return nil, err
	}

	if !created {
		// A concurrent sign-in with the same account may have won the race and linked it.
		winner, err := srv.findLinkedIdentity(ctx, identityRepo, providerRepo, c)
		if err != nil || winner != nil {
			return winner, err
		}

		if !c.EmailVerified {
			return nil, domainerrors.ErrAccountConflict.WrapMessage("provider did not verify an email that already has an account")
		}

		existing, err := providerRepo.FindByIdentityAndProvider(ctx, identity.ID, c.Provider)
		switch {
		case err == nil && existing.ProviderAccountID == c.ProviderAccountID:
			return identity, nil
		case err == nil:
			return nil, domainerrors.ErrAccountConflict.WrapMessage("identity already linked to another account at this provider")
		case !errors.Is(err, repository.ErrProviderNotFound):
			return nil, err
		}
	}

	if err := providerRepo.Link(ctx, &entity.LinkedProvider{
		IdentityID:        identity.ID,
		Provider:          c.Provider,
		ProviderAccountID: c.ProviderAccountID,
	}); err != nil {
		if !errors.Is(err, repository.ErrProviderConflict) {
			return nil, err
		}

		winner, findErr := srv.findLinkedIdentity(ctx, identityRepo, providerRepo, c)
		if findErr != nil {
			return nil, findErr
		}
		if winner == nil {
			return nil, domainerrors.ErrAccountConflict.WrapMessage("identity already linked to another account at this provider")
		}

		return winner, nil
	}

	srv.log(ctx).Info("Linked provider account",
		slog.String("identity_id", identity.ID.String()),
		slog.String("provider", c.Provider.String()),
		slog.Bool("created", created),
	)

	return identity, nil
}

// findLinkedIdentity returns the identity owning the provider account, or nil when the account is unlinked.
func (srv *credentialVerifier) findLinkedIdentity(
	ctx context.Context,
	identityRepo repository.IdentityRepository,
	providerRepo repository.ProviderRepository,
	c usecase.OAuthCredentials,
) (*entity.Identity, error) {
	link, err := providerRepo.FindByAccount(ctx, c.Provider, c.ProviderAccountID)
	if err != nil {
		if errors.Is(err, repository.ErrProviderNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return identityRepo.FindByID(ctx, link.IdentityID)
}
