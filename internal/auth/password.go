// Package auth holds credential and session primitives.
//
// PasswordVault wraps bcrypt. bcrypt generates a random salt per hash and
// embeds it in the output, so the stored digest is self-contained. Cost 12
// takes roughly 250ms on current server hardware, which is the point: slow
// for attackers, negligible for a login.
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for production hashes.
const defaultCost = 12

// PasswordVault provides salted password hashing and verification.
//
// The cost is injected so tests can use bcrypt.MinCost and skip the ~250ms
// per operation that cost 12 buys in production.
type PasswordVault struct {
	cost int
}

// NewPasswordVault creates a PasswordVault with the default cost (12).
func NewPasswordVault() *PasswordVault {
	return &PasswordVault{cost: defaultCost}
}

// NewPasswordVaultForTest creates a vault with a custom (usually minimal)
// cost. Do not use in production.
func NewPasswordVaultForTest(cost int) *PasswordVault {
	return &PasswordVault{cost: cost}
}

// Hash hashes the plaintext with bcrypt. The result is one-way; there is no
// decrypt path anywhere in the system.
//
// bcrypt silently truncates inputs beyond 72 bytes, so longer passwords are
// rejected explicitly.
func (v *PasswordVault) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored digest.
//
// It never returns an error: a malformed digest, an empty digest (accounts
// created through external identity carry none), or a mismatch all yield
// false. bcrypt's comparison is constant-time on the hash bytes.
func (v *PasswordVault) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
