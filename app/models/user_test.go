package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateUser(t *testing.T) {
	user, err := CreateUser("jane", "jane@example.com", "secret-password")
	require.NoError(t, err)

	assert.Equal(t, "jane", user.Name)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.Equal(t, ROLE_USER, user.Role)
	assert.Equal(t, STATUS_INACTIVE, user.Status)

	// Password is stored as a bcrypt hash, never in the clear.
	assert.NotEqual(t, "secret-password", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret-password")))
}

func TestCreateUserValidation(t *testing.T) {
	_, err := CreateUser("jane", "not-an-email", "secret-password")
	assert.Error(t, err)

	_, err = CreateUser("jane", "jane@example.com", "short")
	assert.Error(t, err)

	_, err = CreateUser("jo", "jane@example.com", "secret-password")
	assert.Error(t, err)
}

func TestGenerateActivationToken(t *testing.T) {
	user := &User{Name: "jane"}
	require.NoError(t, user.GenerateActivationToken())

	assert.Len(t, user.ActivationToken, 32)
	require.NotNil(t, user.ActivationSentAt)

	previous := user.ActivationToken
	require.NoError(t, user.GenerateActivationToken())
	assert.NotEqual(t, previous, user.ActivationToken)
}
