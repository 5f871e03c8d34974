package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRegisterRequest(t *testing.T) {
	t.Run("accepts a complete request", func(t *testing.T) {
		req := RegisterRequest{Email: "ana@example.com", Password: "supersecret", FullName: "Ana"}
		assert.NoError(t, Validate(req))
	})

	t.Run("reports json field names", func(t *testing.T) {
		err := Validate(RegisterRequest{Email: "not-an-email", Password: "short"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "email must be a valid email address")
		assert.Contains(t, err.Error(), "password must be at least 8 characters")
		assert.Contains(t, err.Error(), "full_name is required")
	})
}

func TestValidateAdminUpdateUser(t *testing.T) {
	role := "superuser"
	err := Validate(AdminUpdateUserRequest{Role: &role})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role must be one of: investor admin")

	status := "blocked"
	assert.NoError(t, Validate(AdminUpdateUserRequest{Status: &status}))
	assert.NoError(t, Validate(AdminUpdateUserRequest{}))
}

func TestValidateSendEmailRequest(t *testing.T) {
	assert.NoError(t, Validate(SendEmailRequest{UserID: 4, Template: "generic"}))
	assert.NoError(t, Validate(SendEmailRequest{Email: "ops@example.com", Template: "generic"}))

	err := Validate(SendEmailRequest{Email: "nope", Template: "generic"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email address")

	err = Validate(SendEmailRequest{UserID: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "template is required")
}
