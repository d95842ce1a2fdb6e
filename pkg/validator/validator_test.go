package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signUpForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
}

func TestValidate_Passes(t *testing.T) {
	err := Validate(signUpForm{Email: "bud@example.com", Password: "Str0ng#pass"})
	assert.NoError(t, err)
}

func TestValidate_CollectsFieldErrors(t *testing.T) {
	err := Validate(signUpForm{Email: "nope", Password: "short"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	fields := valErr.Fields()
	assert.Contains(t, fields["Email"], "valid email")
	assert.Contains(t, fields["Password"], "at least 8")
}

func TestValidate_OneOfMessage(t *testing.T) {
	err := Validate(signUpForm{Email: "bud@example.com", Password: "Str0ng#pass", Role: "pirate"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields()["Role"], "must be one of")
}

func TestValidationError_ErrorJoinsMessages(t *testing.T) {
	err := Validate(signUpForm{})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Error(), "Email")
	assert.Contains(t, valErr.Error(), "Password")
}
