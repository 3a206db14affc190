package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"academy/config"
	"academy/internal/domain/entity"
	"academy/internal/errors"
	"academy/internal/infra/persistence/sqlitetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpener(t *testing.T) (envOpener, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Auth = &config.AuthConfig{BcryptCost: 4, PasswordMinLength: 8}

	db := sqlitetest.New(t)
	out := &bytes.Buffer{}
	env := &runtimeEnv{
		db:       db,
		operator: newOperator(db, cfg, slog.New(slog.NewTextHandler(io.Discard, nil))),
		out:      out,
	}

	return func(context.Context) (*runtimeEnv, func(), error) {
		return env, func() {}, nil
	}, out
}

func run(t *testing.T, open envOpener, args ...string) error {
	t.Helper()

	cmd := newRootCmd(open)
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	return cmd.ExecuteContext(context.Background())
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	open, out := newTestOpener(t)

	require.NoError(t, run(t, open, "seed-admin", "--email", "Root@Academy.test", "--password", "root-password"))
	assert.Contains(t, out.String(), "created administrator root@academy.test")

	require.NoError(t, run(t, open, "block", "root@academy.test"))
	require.NoError(t, run(t, open, "seed-admin", "--email", "root@academy.test"))
	assert.Contains(t, out.String(), "promoted administrator root@academy.test")

	out.Reset()
	require.NoError(t, run(t, open, "check-admin", "root@academy.test"))
	assert.Contains(t, out.String(), "role:      ADMIN")
	assert.Contains(t, out.String(), "blocked:   false")
	assert.Contains(t, out.String(), "providers: password")
}

func TestSeedAdminRequiresEmail(t *testing.T) {
	open, _ := newTestOpener(t)

	assert.Error(t, run(t, open, "seed-admin"))
}

func TestSetRoleAndCheckAdmin(t *testing.T) {
	open, out := newTestOpener(t)

	require.NoError(t, run(t, open, "seed-admin", "--email", "ops@academy.test"))

	require.NoError(t, run(t, open, "set-role", "ops@academy.test", "instructor"))
	assert.Contains(t, out.String(), "ops@academy.test is now INSTRUCTOR")

	err := run(t, open, "check-admin", "ops@academy.test")
	assert.True(t, errors.Is(err, errNotAdmin))

	assert.ErrorIs(t, run(t, open, "set-role", "ops@academy.test", "wizard"), entity.ErrUnknownRole)
	assert.Error(t, run(t, open, "set-role", "ghost@academy.test", "admin"))
}

func TestBlockUnblock(t *testing.T) {
	open, out := newTestOpener(t)

	require.NoError(t, run(t, open, "seed-admin", "--email", "ops@academy.test"))

	require.NoError(t, run(t, open, "block", "ops@academy.test"))
	assert.Contains(t, out.String(), "ops@academy.test is blocked")
	assert.Error(t, run(t, open, "check-admin", "ops@academy.test"))

	require.NoError(t, run(t, open, "unblock", "ops@academy.test"))
	assert.Contains(t, out.String(), "ops@academy.test is unblocked")
	assert.NoError(t, run(t, open, "check-admin", "ops@academy.test"))
}

func TestPurgeMagicLinks(t *testing.T) {
	open, out := newTestOpener(t)

	require.NoError(t, run(t, open, "purge-magic-links", "--older-than", time.Hour.String()))
	assert.Contains(t, out.String(), "deleted 0 magic-link tokens")
}

func TestMigrate(t *testing.T) {
	open, out := newTestOpener(t)

	require.NoError(t, run(t, open, "migrate"))
	assert.Contains(t, out.String(), "schema is up to date")
}
