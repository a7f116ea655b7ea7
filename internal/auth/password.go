// password.go handles password hashing and verification with bcrypt.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the default cost factor for password hashing
	BcryptCost = 10

	// MinPasswordLength is the minimum accepted password length
	MinPasswordLength = 8
)

// ErrPasswordTooShort is returned when a password fails the length policy
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// ValidatePasswordPolicy checks a plaintext password against the policy
func ValidatePasswordPolicy(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	if err := ValidatePasswordPolicy(password); err != nil {
		return "", err
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}

	return string(hashBytes), nil
}

// CheckPassword verifies a plaintext password against a stored bcrypt hash.
// Returns true only on an exact match; errors are deliberately collapsed into
// a boolean so callers cannot leak why verification failed.
func CheckPassword(storedHash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password))
	return err == nil
}
