package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"academy/config"
	"academy/internal/infra/auth"
	logs "academy/internal/infra/log"
	"academy/internal/infra/persistence/postgres"
	"academy/internal/usecase"
	"academy/internal/usecase/impl"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// runtimeEnv is what every subcommand needs. Tests swap openEnv for an in-memory store.
type runtimeEnv struct {
	db       *gorm.DB
	operator usecase.OperatorUsecase
	out      io.Writer
}

type envOpener func(ctx context.Context) (*runtimeEnv, func(), error)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd(openPostgresEnv)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(open envOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "academyctl",
		Short:         "Operate academy identities from the shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCmd(open),
		seedAdminCmd(open),
		setRoleCmd(open),
		blockCmd(open, true),
		blockCmd(open, false),
		checkAdminCmd(open),
		purgeMagicLinksCmd(open),
	)

	return rootCmd
}

// openPostgresEnv loads config/config.yaml (and env overrides) and connects to the primary database.
func openPostgresEnv(_ context.Context) (*runtimeEnv, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logs.NewWithWriter(cfg, os.Stderr)
	if err != nil {
		return nil, nil, err
	}

	db, err := postgres.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, err
	}

	env := &runtimeEnv{
		db:       db,
		operator: newOperator(db, cfg, logger),
		out:      os.Stdout,
	}

	return env, func() { _ = sqlDB.Close() }, nil
}

func newOperator(db *gorm.DB, cfg *config.Config, logger *slog.Logger) usecase.OperatorUsecase {
	return impl.NewOperatorService(impl.OperatorServiceParams{
		TxManager:     postgres.NewTransactionManager(db),
		IdentityRepo:  postgres.NewIdentityRepository(db),
		ProviderRepo:  postgres.NewProviderRepository(db),
		MagicLinkRepo: postgres.NewMagicLinkRepository(db),
		Hasher:        auth.NewBcryptHasher(cfg),
		Logger:        logger,
	})
}

// withEnv opens the environment for the duration of one command.
func withEnv(cmd *cobra.Command, open envOpener, fn func(ctx context.Context, env *runtimeEnv) error) error {
	ctx := cmd.Context()

	env, closeEnv, err := open(ctx)
	if err != nil {
		return err
	}
	defer closeEnv()

	return fn(ctx, env)
}
