package auth

import (
	"ShortLink-Backend/internal/domain"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(d time.Duration) *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:     []byte("test-secret"),
		TokenDuration: d,
		Issuer:        "test",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWT(time.Hour)

	token, err := svc.GenerateToken(&domain.User{ID: 7, Email: "a@example.com", IsAdmin: true})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "7", claims.Subject)
}

func TestJWTService_Expired(t *testing.T) {
	svc := newTestJWT(-time.Minute)

	token, err := svc.GenerateToken(&domain.User{ID: 1, Email: "a@example.com"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := newTestJWT(time.Hour).GenerateToken(&domain.User{ID: 1})
	require.NoError(t, err)

	other := NewJWTService(&JWTConfig{SecretKey: []byte("other"), TokenDuration: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{UserID: 1, RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestJWT(time.Hour).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "abc", ExtractTokenFromBearer("bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("Basic abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("Bearer "))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
}
