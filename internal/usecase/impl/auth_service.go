package impl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"academy/config"
	deliverycontext "academy/internal/delivery/context"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/domain/repository"
	"academy/internal/domain/service"
	"academy/internal/usecase"

	"go.uber.org/fx"
)

// MagicLinkVerifyPath is the route the emailed link points at.
const MagicLinkVerifyPath = "/auth/magic-link/verify"

// authService implements usecase.AuthUsecase on top of the credential verifier and session issuer.
type authService struct {
	txManager     repository.TransactionManager
	magicLinkRepo repository.MagicLinkRepository
	verifier      usecase.CredentialVerifier
	issuer        usecase.SessionIssuer
	hasher        service.PasswordHasher
	publisher     service.EventPublisher
	config        *config.Config
	now           func() time.Time
	logger        *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	MagicLinkRepo repository.MagicLinkRepository
	Verifier      usecase.CredentialVerifier
	Issuer        usecase.SessionIssuer
	Hasher        service.PasswordHasher
	Publisher     service.EventPublisher
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		txManager:     params.TxManager,
		magicLinkRepo: params.MagicLinkRepo,
		verifier:      params.Verifier,
		issuer:        params.Issuer,
		hasher:        params.Hasher,
		publisher:     params.Publisher,
		config:        params.Config,
		now:           time.Now,
		logger:        params.Logger,
	}
}

func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Login handles email/password sign-in.
func (srv *authService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.AuthResult, error) {
	return srv.signIn(ctx, usecase.PasswordCredentials{Email: input.Email, Password: input.Password})
}

// Signup registers a STUDENT identity with the password method and signs it in.
func (srv *authService) Signup(ctx context.Context, input usecase.SignupInput) (*usecase.AuthResult, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("email is required")
	}

	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		return nil, err
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		srv.log(ctx).Error("Failed to hash password", slog.String("error", err.Error()))

		return nil, domainerrors.ErrAuthInternalError.WrapMessage("hash password")
	}

	identity := &entity.Identity{
		Email:          email,
		DisplayName:    strings.TrimSpace(input.DisplayName),
		CredentialHash: hash,
		Role:           entity.RoleStudent,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if err := repoFactory.NewIdentityRepository().Create(ctx, identity); err != nil {
			return err
		}

		return repoFactory.NewProviderRepository().Link(ctx, &entity.LinkedProvider{
			IdentityID:        identity.ID,
			Provider:          entity.ProviderTypePassword,
			ProviderAccountID: identity.Email,
		})
	})
	if err != nil {
		return nil, mapStorageError(ctx, srv.logger, err, "signup")
	}

	srv.log(ctx).Info("Identity registered", slog.String("identity_id", identity.ID.String()))

	return srv.issue(ctx, identity)
}

// RequestMagicLink stores the hash of a fresh token and publishes the link. Unknown emails
// are accepted: the identity is created when the link is used.
func (srv *authService) RequestMagicLink(ctx context.Context, email string) error {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return domainerrors.ErrValidationFailed.WithDetails("email is required")
	}

	raw, err := generateMagicLinkToken()
	if err != nil {
		srv.log(ctx).Error("Failed to generate magic link token", slog.String("error", err.Error()))

		return domainerrors.ErrAuthInternalError.WrapMessage("generate magic link")
	}

	expiresAt := srv.now().Add(srv.config.Auth.MagicLinkTTL)
	token := &entity.MagicLinkToken{
		Email:     email,
		TokenHash: hashMagicLinkToken(raw),
		ExpiresAt: expiresAt,
	}

	if err := srv.magicLinkRepo.Create(ctx, token); err != nil {
		return mapStorageError(ctx, srv.logger, err, "store magic link")
	}

	event := &service.MagicLinkEvent{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		Email:     email,
		URL:       srv.magicLinkURL(raw),
		ExpiresAt: expiresAt,
	}

	if err := srv.publisher.PublishMagicLink(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to dispatch magic link",
			slog.String("token_id", token.ID.String()),
			slog.String("error", err.Error()),
		)

		return domainerrors.ErrDeliveryFailed
	}

	srv.log(ctx).Info("Magic link dispatched", slog.String("token_id", token.ID.String()))

	return nil
}

// VerifyMagicLink exchanges a raw token for a session.
func (srv *authService) VerifyMagicLink(ctx context.Context, token string) (*usecase.AuthResult, error) {
	return srv.signIn(ctx, usecase.MagicLinkCredentials{Token: token})
}

// OAuthLogin signs in with an identity already verified by the provider.
func (srv *authService) OAuthLogin(ctx context.Context, user *service.OAuthUser) (*usecase.AuthResult, error) {
	if user == nil {
		return nil, domainerrors.ErrOAuthTokenInvalid
	}

	return srv.signIn(ctx, usecase.OAuthCredentials{
		Provider:          user.Provider,
		ProviderAccountID: user.ID,
		Email:             user.Email,
		EmailVerified:     user.EmailVerified,
		DisplayName:       user.Name,
	})
}

// Refresh reissues the session with the identity's current role.
func (srv *authService) Refresh(ctx context.Context, raw string) (*usecase.SessionToken, error) {
	return srv.issuer.Refresh(ctx, raw)
}

func (srv *authService) signIn(ctx context.Context, credentials usecase.Credentials) (*usecase.AuthResult, error) {
	identity, err := srv.verifier.Verify(ctx, credentials)
	if err != nil {
		return nil, err
	}

	return srv.issue(ctx, identity)
}

func (srv *authService) issue(ctx context.Context, identity *entity.Identity) (*usecase.AuthResult, error) {
	token, err := srv.issuer.Issue(ctx, identity)
	if err != nil {
		return nil, err
	}

	return &usecase.AuthResult{Identity: identity, Token: token}, nil
}

func (srv *authService) magicLinkURL(raw string) string {
	base := strings.TrimRight(srv.config.HTTP.PublicBaseURL, "/")

	return base + MagicLinkVerifyPath + "?token=" + url.QueryEscape(raw)
}
