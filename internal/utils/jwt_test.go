package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

func TestJWTUtil_GenerateToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)

	tokenString, err := jwtUtil.GenerateToken("REBL")

	assert.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := jwtUtil.ValidateToken(tokenString)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, "REBL", claims.Username)
	assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, 5*time.Second)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTUtil_ValidateToken_InvalidToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)

	_, err := jwtUtil.ValidateToken("invalid.token.string")
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_ExpiredToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", -1) // Token expires in the past

	tokenString, _ := jwtUtil.GenerateToken("REBL")

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTUtil_ValidateToken_WrongSecret(t *testing.T) {
	jwtUtil1 := NewJWTUtil("secret1", 1)
	jwtUtil2 := NewJWTUtil("secret2", 1)

	tokenString, _ := jwtUtil1.GenerateToken("REBL")

	_, err := jwtUtil2.ValidateToken(tokenString)
	assert.Error(t, err)
}

func TestJWTUtil_ValidateToken_InvalidSigningMethod(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", 1)
	claims := &AdminClaims{
		Username: "REBL",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	tokenString, _ := token.SignedString([]byte("secret"))

	_, err := jwtUtil.ValidateToken(tokenString)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "signing method")
}
