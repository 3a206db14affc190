package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  Role
	}{
		{"ADMIN", RoleAdmin},
		{"admin", RoleAdmin},
		{"Admin", RoleAdmin},
		{" student ", RoleStudent},
		{"Instructor", RoleInstructor},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestParseRole_Unknown(t *testing.T) {
	for _, input := range []string{"", "root", "ADMINS", "tutor"} {
		_, err := ParseRole(input)
		assert.ErrorIs(t, err, ErrUnknownRole, input)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@academy.dev", NormalizeEmail("  Ana@Academy.DEV "))
	assert.Equal(t, NormalizeEmail("A@B.C"), NormalizeEmail("a@b.c"))
}

func TestOAuthProvider(t *testing.T) {
	p := OAuthProvider("Google")
	assert.Equal(t, ProviderType("oauth:google"), p)
	assert.True(t, p.IsOAuth())
	assert.False(t, ProviderTypePassword.IsOAuth())
	assert.False(t, ProviderType("oauth:").IsOAuth())
}
