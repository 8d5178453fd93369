package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// DefaultSessionTTL is how long an issued session stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

// TokenMinter produces the opaque bearer strings handed out at every
// successful authentication event.
//
// Tokens are signed JWTs (HS256) carrying sub, iat, exp and a random jti.
// The jti guarantees two tokens minted for the same user in the same second
// still differ; each login must yield a distinct session. Validity is NOT
// decided by the signature: SessionStore.Resolve only does an exact string
// match against the sessions table, which is what lets externally-issued
// tokens (federated sign-in) resolve through the same path. The signature
// exists so our own tokens are unforgeable and self-describing when debugging.
type TokenMinter struct {
	secret []byte
}

// NewTokenMinter creates a TokenMinter. The secret should be at least 32
// random bytes in production (e.g. `openssl rand -hex 32`).
func NewTokenMinter(secret string) (*TokenMinter, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenMinter{secret: []byte(secret)}, nil
}

// Mint creates a signed token for userID expiring after ttl.
func (m *TokenMinter) Mint(userID string, ttl time.Duration) (string, error) {
	now := time.Now()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ID:        xid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		Issuer:    "learnloop",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}
