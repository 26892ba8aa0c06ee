package auth

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultOwnershipSecret is stored for anonymous content submitted without a
// password. Existing boards depend on it, so it must not change.
const DefaultOwnershipSecret = "admin"

// PasswordVerifier hashes and checks passwords with bcrypt. It is used for
// admin credentials and for the ownership secrets of anonymous posts and comments.
type PasswordVerifier struct {
	cost int
}

// NewPasswordVerifier returns a verifier using the given bcrypt cost. A cost
// outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func NewPasswordVerifier(cost int) *PasswordVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordVerifier{cost: cost}
}

// Hash returns a salted bcrypt hash of plaintext.
func (v *PasswordVerifier) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Matches reports whether plaintext matches hash. Malformed hashes never match.
func (v *PasswordVerifier) Matches(plaintext, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// OwnershipSecret returns the secret to hash for anonymous content: the
// submitted password, or DefaultOwnershipSecret when it is blank.
func OwnershipSecret(submitted string) string {
	if strings.TrimSpace(submitted) == "" {
		return DefaultOwnershipSecret
	}
	return submitted
}
