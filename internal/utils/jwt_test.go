package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateJWT(userID, "user@example.com", "applicant", 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)

	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "applicant", claims.UserType)
	assert.Equal(t, "lexfield-filings", claims.Issuer)
}

func TestValidateJWTRejectsTampering(t *testing.T) {
	token, err := GenerateJWT(uuid.New(), "user@example.com", "applicant", 1)
	require.NoError(t, err)

	_, err = ValidateJWT(token + "x")
	assert.Error(t, err)

	_, err = ValidateJWT("definitely.not.ajwt")
	assert.Error(t, err)
}

func TestGenerateDigits(t *testing.T) {
	digits, err := GenerateDigits(9)
	require.NoError(t, err)
	assert.Len(t, digits, 9)
	for _, r := range digits {
		assert.True(t, r >= '0' && r <= '9')
	}
}

func TestHashStringStable(t *testing.T) {
	assert.Equal(t, HashString("a|b"), HashString("a|b"))
	assert.NotEqual(t, HashString("a|b"), HashString("a|c"))
	assert.Len(t, HashString("x"), 64)
}
