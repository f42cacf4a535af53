package security

import (
	"SetMatch/internal/api/config"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	InitJWT(config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})

	token, err := GenerateToken(42, []string{"ADMIN"})
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.True(t, claims.HasRole("AUDIT", "ADMIN"))
	assert.False(t, claims.HasRole("AUDIT"))

	sig, err := ExtractSignature(token)
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestValidateToken_Rejects(t *testing.T) {
	InitJWT(config.JWTConfig{Secret: "test-secret"})

	other := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongKey, err := other.SignedString([]byte("another-secret"))
	require.NoError(t, err)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	expiredToken, err := expired.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	anonymous := jwt.NewWithClaims(jwt.SigningMethodHS256, &UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	anonymousToken, err := anonymous.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":   "not.a.token",
		"wrong key": wrongKey,
		"expired":   expiredToken,
		"no user":   anonymousToken,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func TestExtractSignature_Malformed(t *testing.T) {
	_, err := ExtractSignature("only.two")
	assert.Error(t, err)
}
