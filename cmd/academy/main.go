package main

import (
	"context"
	"log/slog"
	"os"

	"academy/config"
	"academy/internal/delivery"
	"academy/internal/delivery/http"
	"academy/internal/delivery/http/cookie"
	"academy/internal/delivery/http/middleware"
	"academy/internal/delivery/http/router/handler"
	"academy/internal/domain/service"
	"academy/internal/infra/auth"
	"academy/internal/infra/auth/google"
	logs "academy/internal/infra/log"
	"academy/internal/infra/persistence/postgres"
	"academy/internal/infra/pubsub"
	"academy/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewIdentityRepository,
			postgres.NewProviderRepository,
			postgres.NewMagicLinkRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			google.NewProvider,
			newOAuthRegistry,
			newIDTokenService,
		),
	)
}

// newOAuthRegistry registers every configured redirect-flow provider.
func newOAuthRegistry(googleProvider *google.Provider) *auth.OAuthRegistry {
	if googleProvider == nil {
		return auth.NewOAuthRegistry()
	}

	return auth.NewOAuthRegistry(googleProvider)
}

// newIDTokenService exposes Google ID token sign-in. It is nil when Google is not configured.
func newIDTokenService(googleProvider *google.Provider) service.OAuthAuthService {
	if googleProvider == nil {
		return nil
	}

	return googleProvider
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewCredentialVerifier,
			impl.NewSessionIssuer,
			impl.NewSessionReader,
			impl.NewAuthService,
			impl.NewIdentityAdminService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			cookie.NewManager,
			middleware.NewPolicy,
			middleware.NewSessionMiddleware,
			middleware.NewRouteGuard,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewOAuthHandler,
			handler.NewPageHandler,
			handler.NewAdminHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
