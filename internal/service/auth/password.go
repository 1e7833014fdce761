package auth

import (
	"crypto/sha1" //nolint:gosec // the remote service identifies accounts by the SHA-1 of the password
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/phrazzld/tracktoid/internal/config"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns a plaintext password into the form stored in
// preferences and sent to the remote service.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// PasswordVerifier defines the interface for comparing passwords.
type PasswordVerifier interface {
	// Compare compares a hashed password with its possible plaintext equivalent.
	// Returns nil on success, or an error on failure (e.g., mismatch).
	Compare(hashedPassword, password string) error
}

// SHA1Hasher produces the lower-case hex SHA-1 digest the Trakt API expects.
type SHA1Hasher struct{}

// NewSHA1Hasher creates a new SHA1Hasher.
func NewSHA1Hasher() *SHA1Hasher {
	return &SHA1Hasher{}
}

// Hash implements PasswordHasher.
func (h *SHA1Hasher) Hash(password string) (string, error) {
	sum := sha1.Sum([]byte(password)) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}

// Compare implements PasswordVerifier.
func (h *SHA1Hasher) Compare(hashedPassword, password string) error {
	want, _ := h.Hash(password)
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(hashedPassword)), []byte(want)) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// BcryptHasher implements PasswordHasher and PasswordVerifier using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a new BcryptHasher. A zero cost selects bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash implements PasswordHasher.
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Compare implements the PasswordVerifier interface using bcrypt.
func (h *BcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// NewPasswordHasher returns the hasher for one of the config.Hash* algorithms.
func NewPasswordHasher(algorithm string, cost int) (PasswordHasher, error) {
	switch algorithm {
	case config.HashSHA1:
		return NewSHA1Hasher(), nil
	case config.HashBcrypt:
		return NewBcryptHasher(cost), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownHashAlgorithm, algorithm)
	}
}

var (
	_ PasswordHasher   = (*SHA1Hasher)(nil)
	_ PasswordVerifier = (*SHA1Hasher)(nil)
	_ PasswordHasher   = (*BcryptHasher)(nil)
	_ PasswordVerifier = (*BcryptHasher)(nil)
)
