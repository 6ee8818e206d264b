package application

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := CreatePasswordHash("password", fastPasswordParams)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	assert.NoError(t, VerifyPassword(hash, "password"))
	assert.ErrorIs(t, VerifyPassword(hash, "Password"), ErrInvalidCredentials)

	other, err := CreatePasswordHash("password", fastPasswordParams)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "salts differ")
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	tests := map[string]error{
		"plain":                                   ErrInvalidPasswordHash,
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5":    ErrInvalidPasswordHash,
		"$argon2id$v=16$m=1,t=1,p=1$c2FsdA$a2V5":  ErrIncompatiblePasswordVersion,
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5":  ErrInvalidPasswordHash,
		"$argon2id$v=19$m=1,t=1,p=1$!!!$a2V5":     ErrInvalidPasswordHash,
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$a2V5$": ErrInvalidPasswordHash,
	}
	for encoded, want := range tests {
		assert.ErrorIs(t, VerifyPassword(encoded, "password"), want, encoded)
	}
}
