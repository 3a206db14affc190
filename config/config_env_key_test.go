package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"pubsub": map[string]any{
			"topicId": "",
		},
		"session": map[string]any{
			"secret":       "",
			"secureCookie": false,
		},
		"auth": map[string]any{
			"magicLinkTtl": "15m",
		},
		"googleOAuth": map[string]any{
			"clientSecret": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "PUBSUB_TOPICID", want: "pubsub.topicId"},
		{envKey: "SESSION_SECRET", want: "session.secret"},
		{envKey: "SESSION_SECURECOOKIE", want: "session.secureCookie"},
		{envKey: "AUTH_MAGICLINKTTL", want: "auth.magicLinkTtl"},
		{envKey: "GOOGLEOAUTH_CLIENTSECRET", want: "googleOAuth.clientSecret"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	assert.Equal(t, "100KB", cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "academy.session-token", cfg.Session.CookieName)
	assert.Equal(t, "academy", cfg.Session.Issuer)
	assert.Equal(t, 8, cfg.Auth.PasswordMinLength)
	assert.Equal(t, 15*time.Minute, cfg.Auth.MagicLinkTTL)
	assert.NotNil(t, cfg.Routes)
	assert.NotNil(t, cfg.GoogleOAuth)
	assert.NotNil(t, cfg.PubSub)
	assert.NotNil(t, cfg.Mailer)
}

func TestApplyDefaults_KeepsConfiguredValues(t *testing.T) {
	cfg := &Config{
		Session: &SessionConfig{TTL: time.Hour, CookieName: "sid"},
		Auth:    &AuthConfig{PasswordMinLength: 12},
	}
	cfg.applyDefaults()

	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, "sid", cfg.Session.CookieName)
	assert.Equal(t, 12, cfg.Auth.PasswordMinLength)
}

func TestBuildReplicasFromEnv(t *testing.T) {
	t.Setenv("POSTGRES_REPLICAS_0_HOST", "replica-0")
	t.Setenv("POSTGRES_REPLICAS_0_PORT", "5432")
	t.Setenv("POSTGRES_REPLICAS_0_USERNAME", "reader")
	t.Setenv("POSTGRES_REPLICAS_1_HOST", "replica-1")

	replicas := buildReplicasFromEnv()

	if assert.Len(t, replicas, 1) {
		assert.Equal(t, "replica-0", replicas[0].Host)
		assert.Equal(t, "5432", replicas[0].Port)
		assert.Equal(t, "reader", replicas[0].UserName)
	}
}
