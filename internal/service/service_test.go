package service

// Shared in-memory fakes for the repository and collaborator interfaces.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/rs/xid"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/auth"
	"github.com/sakif/learnloop/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type memUserRepo struct {
	users map[string]*model.User // id → user
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*model.User{}}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range r.users {
		if u.Email == user.Email {
			return apperror.Conflict("user already exists with email " + user.Email)
		}
	}
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.LastLogin = now
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id string) (*model.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	return user, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (r *memUserRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	if user, ok := r.users[id]; ok {
		user.LastLogin = at
	}
	return nil
}

func (r *memUserRepo) AddEnrolledCourse(_ context.Context, userID, courseID string) error {
	user, ok := r.users[userID]
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

type memSessionRepo struct {
	sessions map[string]*model.Session // token → session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*model.Session{}}
}

func (r *memSessionRepo) CreateSession(_ context.Context, session *model.Session) error {
	stored := *session
	stored.ID = xid.New().String()
	stored.CreatedAt = time.Now().UTC()
	r.sessions[stored.Token] = &stored
	return nil
}

func (r *memSessionRepo) GetActiveByToken(_ context.Context, token string, now time.Time) (*model.Session, error) {
	session, ok := r.sessions[token]
	if !ok || !session.ExpiresAt.After(now) {
		return nil, apperror.NotFound("session", token)
	}
	return session, nil
}

func (r *memSessionRepo) DeleteByUser(_ context.Context, userID string) error {
	for token, session := range r.sessions {
		if session.UserID == userID {
			delete(r.sessions, token)
		}
	}
	return nil
}

type memCourseRepo struct {
	courses []*model.Course
}

func (r *memCourseRepo) CreateCourse(_ context.Context, course *model.Course) error {
	if course.ID == "" {
		course.ID = xid.New().String()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	for i := range course.Lessons {
		if course.Lessons[i].ID == "" {
			course.Lessons[i].ID = xid.New().String()
		}
	}
	r.courses = append(r.courses, course)
	return nil
}

func (r *memCourseRepo) ListCoursesByUser(_ context.Context, userID string) ([]model.Course, error) {
	out := []model.Course{}
	for _, c := range r.courses {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *memCourseRepo) ListRecentCourses(_ context.Context, userID string, limit int) ([]model.Course, error) {
	all, _ := r.ListCoursesByUser(context.Background(), userID)
	// Insertion order approximates created_at order in these fakes.
	out := []model.Course{}
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (r *memCourseRepo) GetCourseByLesson(_ context.Context, userID, lessonID string) (*model.Course, error) {
	for _, c := range r.courses {
		if c.UserID != userID {
			continue
		}
		for _, l := range c.Lessons {
			if l.ID == lessonID {
				return c, nil
			}
		}
	}
	return nil, apperror.NotFound("lesson", lessonID)
}

type memProgressRepo struct {
	records []*model.UserProgress
}

func (r *memProgressRepo) UpsertProgress(_ context.Context, progress *model.UserProgress) error {
	now := time.Now().UTC()
	for _, existing := range r.records {
		if existing.UserID == progress.UserID && existing.CourseID == progress.CourseID {
			progress.ID = existing.ID
			progress.CreatedAt = existing.CreatedAt
			progress.UpdatedAt = now
			*existing = *progress
			return nil
		}
	}
	if progress.ID == "" {
		progress.ID = xid.New().String()
	}
	progress.CreatedAt = now
	progress.UpdatedAt = now
	stored := *progress
	r.records = append(r.records, &stored)
	return nil
}

func (r *memProgressRepo) ListProgressByUser(_ context.Context, userID string) ([]model.UserProgress, error) {
	out := []model.UserProgress{}
	for _, p := range r.records {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// Pipeline collaborator fakes.

type stubRanker struct {
	candidates []model.VideoCandidate
	err        error
}

func (s *stubRanker) Rank(_ context.Context, _, _ string, _ int) ([]model.VideoCandidate, error) {
	return s.candidates, s.err
}

type stubAggregator struct {
	corpus string
}

func (s *stubAggregator) Aggregate(_ context.Context, _ []string, _ string) string {
	return s.corpus
}

type stubLessonSynth struct {
	lessons []model.Lesson
	err     error
}

func (s *stubLessonSynth) Synthesize(_ context.Context, _, _ string, _ model.Mode) ([]model.Lesson, error) {
	return s.lessons, s.err
}

type stubQuizSynth struct{}

func (stubQuizSynth) Synthesize(_ context.Context, lesson model.Lesson) model.Quiz {
	return model.Quiz{
		ID:       xid.New().String(),
		LessonID: lesson.ID,
		Questions: []model.Question{
			{
				Type:   model.QuestionMCQ,
				Prompt: fmt.Sprintf("What is the main topic of the lesson '%s'?", lesson.Title),
			},
		},
	}
}

type stubIdentity struct {
	identity *auth.ExternalIdentity
	err      error
}

func (s *stubIdentity) Exchange(_ context.Context, _ string) (*auth.ExternalIdentity, error) {
	return s.identity, s.err
}

type stubGoogle struct {
	profile *auth.GoogleUser
	err     error
}

func (s *stubGoogle) Exchange(_ context.Context, _ string) (*auth.GoogleUser, error) {
	return s.profile, s.err
}

// newAuthFixture builds an AuthService over in-memory repos and a live
// SessionStore, returning the pieces tests assert against.
func newAuthFixture(t *testing.T) (*AuthService, *memUserRepo, *auth.SessionStore) {
	t.Helper()

	users := newMemUserRepo()
	minter, err := auth.NewTokenMinter("test-secret-test-secret")
	if err != nil {
		t.Fatalf("NewTokenMinter() error = %v", err)
	}
	sessions := auth.NewSessionStore(newMemSessionRepo(), users, minter, testLogger())
	vault := auth.NewPasswordVaultForTest(bcrypt.MinCost)

	svc := NewAuthService(users, vault, sessions, &stubIdentity{}, &stubGoogle{}, testLogger())
	return svc, users, sessions
}
