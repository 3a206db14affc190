package validator

import (
	"testing"

	domainerrors "academy/internal/domain/errors"
	"academy/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func TestValidator(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&signupRequest{Email: "ada@example.com", Password: "x"}))

	err := v.Validate(&signupRequest{Email: "not-an-email"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	var baseErr *domainerrors.BaseError
	require.True(t, errors.As(err, &baseErr))
	assert.Contains(t, baseErr.Details(), "email: email")
	assert.Contains(t, baseErr.Details(), "password: required")
}
