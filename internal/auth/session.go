package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
)

// SessionStore issues, resolves and revokes bearer sessions.
//
// It is transport-agnostic: it only ever sees token strings. Reading them
// out of cookies or Authorization headers is the middleware's job.
type SessionStore struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	minter   *TokenMinter
	logger   *slog.Logger
	now      func() time.Time
}

// NewSessionStore wires a SessionStore.
func NewSessionStore(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	minter *TokenMinter,
	logger *slog.Logger,
) *SessionStore {
	return &SessionStore{
		sessions: sessions,
		users:    users,
		minter:   minter,
		logger:   logger,
		now:      time.Now,
	}
}

// Issue mints a fresh token and records a session expiring after ttl
// (DefaultSessionTTL when ttl is zero). Every call creates a new session;
// concurrent sessions per user are expected.
func (s *SessionStore) Issue(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	token, err := s.minter.Mint(userID, ttl)
	if err != nil {
		return "", fmt.Errorf("auth: minting session token: %w", err)
	}

	if err := s.Adopt(ctx, userID, token, ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Adopt records an externally-supplied token (federated sign-in hands us the
// provider's token) as a session for userID. Issue funnels through here too.
func (s *SessionStore) Adopt(ctx context.Context, userID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	session := &model.Session{
		UserID:    userID,
		Token:     token,
		ExpiresAt: s.now().Add(ttl),
	}
	if err := s.sessions.CreateSession(ctx, session); err != nil {
		return fmt.Errorf("auth: storing session: %w", err)
	}
	return nil
}

// Resolve returns the user owning a live session for token, or (nil, nil)
// when there is none. A miss, an expired session and a dangling user
// reference all look the same to the caller: no user. Only infrastructure
// failures produce an error.
func (s *SessionStore) Resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.GetActiveByToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("auth: resolving session: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Session outlived its user. Treat as anonymous rather than
			// surfacing an internal inconsistency to the request path.
			s.logger.Warn("session references missing user",
				slog.String("sessionID", session.ID),
				slog.String("userID", session.UserID),
			)
			return nil, nil
		}
		return nil, fmt.Errorf("auth: loading session user: %w", err)
	}

	return user, nil
}

// RevokeAll deletes every session the user owns, across all devices.
// Idempotent: revoking a user with no sessions is a no-op.
func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("auth: revoking sessions for user %s: %w", userID, err)
	}
	return nil
}
