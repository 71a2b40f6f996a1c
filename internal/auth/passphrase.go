// Package auth provides session tokens and optional passphrase protection.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrWeakPassphrase    = errors.New("passphrase must be at least 4 characters")
)

// HashPassphrase hashes a session passphrase with bcrypt. An empty passphrase
// means the session is unprotected and hashes to the empty string.
func HashPassphrase(passphrase string) (string, error) {
	if passphrase == "" {
		return "", nil
	}
	if len(passphrase) < 4 {
		return "", ErrWeakPassphrase
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return string(hash), nil
}

// CheckPassphrase verifies a passphrase against a stored hash. Sessions with
// an empty hash accept any passphrase, including none.
func CheckPassphrase(hash, passphrase string) error {
	if hash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(passphrase)); err != nil {
		return ErrInvalidPassphrase
	}
	return nil
}
