package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, expiry, err := ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	// Expiry sits roughly 72 hours out.
	remaining := time.Until(expiry)
	assert.Greater(t, remaining, 71*time.Hour)
	assert.LessOrEqual(t, remaining, 72*time.Hour)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	_, _, err := ValidateToken("not-a-token")
	assert.Error(t, err)
}

func TestValidateTokenRejectsTamperedToken(t *testing.T) {
	token, err := GenerateToken(42)
	require.NoError(t, err)

	// Flip a character in the signature segment.
	tampered := token[:len(token)-2] + "xx"
	_, _, err = ValidateToken(tampered)
	assert.Error(t, err)
}
