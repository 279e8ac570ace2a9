package utils

import (
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes password with bcrypt's default cost
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a plain password with a bcrypt hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// IsBcryptHash reports whether stored looks like a bcrypt hash
func IsBcryptHash(stored string) bool {
	return len(stored) == 60 && (strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$"))
}

// CheckPassword compares password with a stored credential that may be
// either a bcrypt hash or plain text (data files written before hashing).
func CheckPassword(password, stored string) bool {
	if IsBcryptHash(stored) {
		return CheckPasswordHash(password, stored)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(stored)) == 1
}
