package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
)

type fakeSessionRepo struct {
	sessions map[string]*model.Session // token → session
	failWith error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*model.Session{}}
}

func (f *fakeSessionRepo) CreateSession(_ context.Context, session *model.Session) error {
	if f.failWith != nil {
		return f.failWith
	}
	stored := *session
	stored.ID = xid.New().String()
	stored.CreatedAt = time.Now()
	f.sessions[stored.Token] = &stored
	return nil
}

func (f *fakeSessionRepo) GetActiveByToken(_ context.Context, token string, now time.Time) (*model.Session, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	session, ok := f.sessions[token]
	if !ok || !session.ExpiresAt.After(now) {
		return nil, apperror.NotFound("session", token)
	}
	return session, nil
}

func (f *fakeSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	for token, session := range f.sessions {
		if session.UserID == userID {
			delete(f.sessions, token)
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[string]*model.User // id → user
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[string]*model.User{}}
	for _, user := range users {
		repo.users[user.ID] = user
	}
	return repo
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (f *fakeUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if user, ok := f.users[id]; ok {
		user.LastLogin = at
	}
	return nil
}

func (f *fakeUserRepo) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	for _, id := range user.CoursesEnrolled {
		if id == courseID {
			return nil
		}
	}
	user.CoursesEnrolled = append(user.CoursesEnrolled, courseID)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T, sessions *fakeSessionRepo, users *fakeUserRepo) *SessionStore {
	t.Helper()
	minter, err := NewTokenMinter("test-secret-test-secret")
	if err != nil {
		t.Fatalf("NewTokenMinter() error = %v", err)
	}
	return NewSessionStore(sessions, users, minter, quietLogger())
}

func TestSessionStore_IssueThenResolve(t *testing.T) {
	user := &model.User{ID: "u1", Email: "a@example.com", Name: "Ada"}
	sessions := newFakeSessionRepo()
	store := newTestStore(t, sessions, newFakeUserRepo(user))

	token, err := store.Issue(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Fatal("Issue() returned an empty token")
	}

	resolved, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved == nil || resolved.ID != "u1" {
		t.Fatalf("Resolve() = %+v, want user u1", resolved)
	}
}

func TestSessionStore_ResolveUnknownTokenIsAnonymous(t *testing.T) {
	store := newTestStore(t, newFakeSessionRepo(), newFakeUserRepo())

	user, err := store.Resolve(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if user != nil {
		t.Errorf("Resolve() = %+v, want nil", user)
	}
}

func TestSessionStore_ResolveEmptyTokenIsAnonymous(t *testing.T) {
	store := newTestStore(t, newFakeSessionRepo(), newFakeUserRepo())

	user, err := store.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if user != nil {
		t.Errorf("Resolve() = %+v, want nil", user)
	}
}

func TestSessionStore_ExpiredSessionIsAnonymous(t *testing.T) {
	user := &model.User{ID: "u1", Email: "a@example.com"}
	sessions := newFakeSessionRepo()
	store := newTestStore(t, sessions, newFakeUserRepo(user))

	token, err := store.Issue(context.Background(), "u1", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Move the store's clock past the session's expiry. The row is still in
	// the repo; the expiry filter alone must hide it.
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	resolved, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved != nil {
		t.Errorf("Resolve() = %+v after expiry, want nil", resolved)
	}
	if len(sessions.sessions) != 1 {
		t.Errorf("expired session was deleted; expiry must filter, not delete")
	}
}

func TestSessionStore_RevokeAllKillsEverySession(t *testing.T) {
	user := &model.User{ID: "u1", Email: "a@example.com"}
	sessions := newFakeSessionRepo()
	store := newTestStore(t, sessions, newFakeUserRepo(user))

	first, _ := store.Issue(context.Background(), "u1", time.Hour)
	second, _ := store.Issue(context.Background(), "u1", time.Hour)
	if first == second {
		t.Fatal("two issued tokens are identical")
	}

	if err := store.RevokeAll(context.Background(), "u1"); err != nil {
		t.Fatalf("RevokeAll() error = %v", err)
	}

	for _, token := range []string{first, second} {
		resolved, err := store.Resolve(context.Background(), token)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if resolved != nil {
			t.Errorf("token %q still resolves after RevokeAll", token)
		}
	}

	// Revoking again is a no-op, not an error.
	if err := store.RevokeAll(context.Background(), "u1"); err != nil {
		t.Errorf("second RevokeAll() error = %v", err)
	}
}

func TestSessionStore_AdoptExternalToken(t *testing.T) {
	user := &model.User{ID: "u1", Email: "a@example.com"}
	store := newTestStore(t, newFakeSessionRepo(), newFakeUserRepo(user))

	// Provider-issued tokens are opaque strings, not our JWTs. Resolve must
	// not care.
	if err := store.Adopt(context.Background(), "u1", "provider-opaque-token", 0); err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}

	resolved, err := store.Resolve(context.Background(), "provider-opaque-token")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved == nil || resolved.ID != "u1" {
		t.Fatalf("Resolve() = %+v, want user u1", resolved)
	}
}

func TestSessionStore_DanglingUserIsAnonymous(t *testing.T) {
	sessions := newFakeSessionRepo()
	store := newTestStore(t, sessions, newFakeUserRepo()) // no users at all

	token, err := store.Issue(context.Background(), "ghost", time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	resolved, err := store.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved != nil {
		t.Errorf("Resolve() = %+v for a session whose user is gone, want nil", resolved)
	}
}

func TestSessionStore_InfrastructureErrorsPropagate(t *testing.T) {
	sessions := newFakeSessionRepo()
	sessions.failWith = errors.New("disk on fire")
	store := newTestStore(t, sessions, newFakeUserRepo())

	if _, err := store.Resolve(context.Background(), "any-token"); err == nil {
		t.Error("Resolve() swallowed an infrastructure error")
	}
	if _, err := store.Issue(context.Background(), "u1", time.Hour); err == nil {
		t.Error("Issue() swallowed an infrastructure error")
	}
}
