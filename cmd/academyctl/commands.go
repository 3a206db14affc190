package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"academy/internal/domain/entity"
	"academy/internal/errors"
	"academy/internal/infra/persistence/postgres"
	"academy/internal/usecase"

	"github.com/spf13/cobra"
)

// adminPasswordEnv lets scripts pass the bootstrap password without it showing up in ps.
const adminPasswordEnv = "ACADEMY_ADMIN_PASSWORD"

var errNotAdmin = errors.New("identity is not an active administrator")

func migrateCmd(open envOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the identity tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *runtimeEnv) error {
				if err := postgres.AutoMigrate(ctx, env.db); err != nil {
					return err
				}
				fmt.Fprintln(env.out, "schema is up to date")

				return nil
			})
		},
	}
}

func seedAdminCmd(open envOpener) *cobra.Command {
	var input usecase.SeedAdminInput

	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the administrator, or promote and unblock an existing identity",
		Long: `Create the administrator account. Running it again is safe: an existing identity
with the same email is promoted to ADMIN and unblocked, and its credentials are kept.
The password may also be given through ` + adminPasswordEnv + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if input.Password == "" {
				input.Password = os.Getenv(adminPasswordEnv)
			}

			return withEnv(cmd, open, func(ctx context.Context, env *runtimeEnv) error {
				identity, created, err := env.operator.SeedAdmin(ctx, input)
				if err != nil {
					return err
				}

				verb := "promoted"
				if created {
					verb = "created"
				}
				fmt.Fprintf(env.out, "%s administrator %s (%s)\n", verb, identity.Email, identity.ID)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&input.Email, "email", "", "Administrator email")
	cmd.Flags().StringVar(&input.Password, "password", "", "Administrator password (optional)")
	cmd.Flags().StringVar(&input.DisplayName, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func setRoleCmd(open envOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "set-role <email> <role>",
		Short: "Change the role of an identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, err := entity.ParseRole(args[1])
			if err != nil {
				return err
			}

			return withEnv(cmd, open, func(ctx context.Context, env *runtimeEnv) error {
				identity, err := env.operator.SetRole(ctx, args[0], role)
				if err != nil {
					return err
				}
				fmt.Fprintf(env.out, "%s is now %s\n", identity.Email, identity.Role)

				return nil
			})
		},
	}
}

func blockCmd(open envOpener, blocked bool) *cobra.Command {
	use, short, state := "block", "Block an identity from signing in", "blocked"
	if !blocked {
		use, short, state = "unblock", "Allow a blocked identity to sign in again", "unblocked"
	}

	return &cobra.Command{
		Use:   use + " <email>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *runtimeEnv) error {
				identity, err := env.operator.SetBlocked(ctx, args[0], blocked)
				if err != nil {
					return err
				}
				fmt.Fprintf(env.out, "%s is %s\n", identity.Email, state)

				return nil
			})
		},
	}
}

func checkAdminCmd(open envOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "check-admin <email>",
		Short: "Show an identity and fail unless it is an unblocked administrator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *runtimeEnv) error {
				details, err := env.operator.Lookup(ctx, args[0])
				if err != nil {
					return err
				}

				identity := details.Identity
				providers := make([]string, 0, len(details.Providers))
				for _, p := range details.Providers {
					providers = append(providers, p.Provider.String())
				}

				fmt.Fprintf(env.out, "id:        %s\n", identity.ID)
				fmt.Fprintf(env.out, "email:     %s\n", identity.Email)
				fmt.Fprintf(env.out, "role:      %s\n", identity.Role)
				fmt.Fprintf(env.out, "blocked:   %t\n", identity.IsBlocked)
				fmt.Fprintf(env.out, "verified:  %t\n", identity.IsEmailVerified())
				fmt.Fprintf(env.out, "providers: %s\n", strings.Join(providers, ", "))

				if identity.Role != entity.RoleAdmin || identity.IsBlocked {
					return errNotAdmin
				}

				return nil
			})
		},
	}
}

func purgeMagicLinksCmd(open envOpener) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge-magic-links",
		Short: "Delete magic-link tokens that expired before now minus --older-than",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEnv(cmd, open, func(ctx context.Context, env *runtimeEnv) error {
				deleted, err := env.operator.PurgeMagicLinks(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(env.out, "deleted %d magic-link tokens\n", deleted)

				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Keep tokens that expired within this window")

	return cmd
}
