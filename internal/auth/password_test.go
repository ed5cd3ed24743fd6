package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)

	hash, err := svc.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.NoError(t, svc.VerifyPassword(hash, "correct horse"))
	assert.Error(t, svc.VerifyPassword(hash, "wrong horse"))
}

func TestPasswordService_EmptyPassword(t *testing.T) {
	_, err := NewPasswordService(bcrypt.MinCost).HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestPasswordService_LongPassword(t *testing.T) {
	svc := NewPasswordService(bcrypt.MinCost)
	long := strings.Repeat("p", 128)

	hash, err := svc.HashPassword(long)
	require.NoError(t, err)
	assert.NoError(t, svc.VerifyPassword(hash, long))
}

func TestNewPasswordService_InvalidCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswordService(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswordService(99).cost)
}
