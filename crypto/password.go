package crypto

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when hashing an empty operator password.
var ErrEmptyPassword = errors.New("empty password")

// CheckPassword reports whether password matches the operator's bcrypt
// hash. An empty password or hash never matches, so an unset
// admin.password_hash disables login.
func CheckPassword(password, hash string) bool {
	if password == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GenerateHash returns the bcrypt hash to store as admin.password_hash.
// Passwords longer than 72 bytes are rejected by bcrypt.
func GenerateHash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash operator password: %w", err)
	}
	return string(hashed), nil
}
