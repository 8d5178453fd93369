// Package service implements the application's use cases on top of the
// repositories and external collaborators. Services know nothing about HTTP;
// they take domain values and return domain values plus tagged errors.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/auth"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
)

// identityExchanger trades an external session-exchange id for a signed-in
// profile. auth.IdentityClient is the production implementation.
type identityExchanger interface {
	Exchange(ctx context.Context, sessionID string) (*auth.ExternalIdentity, error)
}

// googleExchanger trades an OAuth callback code for a Google profile.
type googleExchanger interface {
	Exchange(ctx context.Context, code string) (*auth.GoogleUser, error)
}

// AuthService owns signup, login, federated sign-in and logout.
type AuthService struct {
	users    repository.UserRepository
	vault    *auth.PasswordVault
	sessions *auth.SessionStore
	identity identityExchanger
	google   googleExchanger
	logger   *slog.Logger
}

// NewAuthService wires an AuthService.
func NewAuthService(
	users repository.UserRepository,
	vault *auth.PasswordVault,
	sessions *auth.SessionStore,
	identity identityExchanger,
	google googleExchanger,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		vault:    vault,
		sessions: sessions,
		identity: identity,
		google:   google,
		logger:   logger,
	}
}

// Signup registers an email/password account and opens its first session.
// A taken email surfaces as Conflict.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", apperror.ValidationFailed("email", "a valid email is required")
	}
	if len(password) < 6 {
		return nil, "", apperror.ValidationFailed("password", "password must be at least 6 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, "", apperror.ValidationFailed("name", "name is required")
	}

	hash, err := s.vault.Hash(password)
	if err != nil {
		return nil, "", apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", fmt.Errorf("service: creating user: %w", err)
	}

	token, err := s.sessions.Issue(ctx, user.ID, 0)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))
	return user, token, nil
}

// Login authenticates an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller: both are InvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, "", apperror.InvalidCredentials()
		}
		return nil, "", fmt.Errorf("service: looking up user: %w", err)
	}

	if !s.vault.Verify(password, user.PasswordHash) {
		return nil, "", apperror.InvalidCredentials()
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("service: touching last login: %w", err)
	}
	user.LastLogin = now

	token, err := s.sessions.Issue(ctx, user.ID, 0)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return user, token, nil
}

// ExchangeExternalSession completes federated sign-in: it trades the
// session-exchange id for the provider's profile and token, upserts the
// account by email, and adopts the provider-issued token as a session.
func (s *AuthService) ExchangeExternalSession(ctx context.Context, sessionID string) (*model.User, string, error) {
	if sessionID == "" {
		return nil, "", apperror.ValidationFailed("session_id", "session id is required")
	}

	identity, err := s.identity.Exchange(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}

	user, err := s.upsertExternalUser(ctx, identity.Email, identity.Name, identity.Picture)
	if err != nil {
		return nil, "", err
	}

	if err := s.sessions.Adopt(ctx, user.ID, identity.SessionToken, 0); err != nil {
		return nil, "", err
	}

	s.logger.Info("external sign-in completed", slog.String("userID", user.ID))
	return user, identity.SessionToken, nil
}

// LoginWithGoogle completes the direct Google code flow: the profile comes
// straight from Google, but the session token is minted by us.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*model.User, string, error) {
	if code == "" {
		return nil, "", apperror.ValidationFailed("code", "authorization code is required")
	}

	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return nil, "", apperror.Unavailable("google", err.Error())
	}

	user, err := s.upsertExternalUser(ctx, profile.Email, profile.Name, profile.Picture)
	if err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(ctx, user.ID, 0)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("google sign-in completed", slog.String("userID", user.ID))
	return user, token, nil
}

// upsertExternalUser finds the account for email or creates one without a
// password hash, then records the sign-in.
func (s *AuthService) upsertExternalUser(ctx context.Context, email, name, picture string) (*model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// Existing account, possibly created via password signup.
	case errors.Is(err, apperror.ErrNotFound):
		user = &model.User{
			Email:   email,
			Name:    name,
			Picture: picture,
		}
		if user.Name == "" {
			user.Name = email
		}
		if err := s.users.CreateUser(ctx, user); err != nil {
			return nil, fmt.Errorf("service: creating external user: %w", err)
		}
	default:
		return nil, fmt.Errorf("service: looking up external user: %w", err)
	}

	now := time.Now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("service: touching last login: %w", err)
	}
	user.LastLogin = now

	return user, nil
}

// Logout revokes every session the user owns, across all devices.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	return s.sessions.RevokeAll(ctx, userID)
}
