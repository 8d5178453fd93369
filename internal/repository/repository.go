// Package repository defines the persistence interfaces the services depend
// on. The concrete implementation lives in repository/sqlite; tests use
// in-memory fakes.
//
// One sqlite.DB value implements all four interfaces, so method names carry
// the entity (CreateUser, CreateSession, ...) rather than relying on the
// interface to disambiguate.
package repository

import (
	"context"
	"time"

	"github.com/sakif/learnloop/internal/model"
)

type UserRepository interface {
	// CreateUser inserts a new user. Returns apperror.ErrConflict when the
	// email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail returns apperror.ErrNotFound on miss. Callers on the
	// login path must translate that to InvalidCredentials themselves.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// AddEnrolledCourse is a set-insert: recording the same course twice
	// leaves a single entry.
	AddEnrolledCourse(ctx context.Context, userID, courseID string) error
}

type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	// GetActiveByToken matches the token exactly and filters expired rows
	// in the query; expiry never deletes anything. Miss → apperror.ErrNotFound.
	GetActiveByToken(ctx context.Context, token string, now time.Time) (*model.Session, error)
	// DeleteByUser removes every session owned by the user. Idempotent.
	DeleteByUser(ctx context.Context, userID string) error
}

type CourseRepository interface {
	// CreateCourse persists the course with its lessons and video
	// candidates atomically.
	CreateCourse(ctx context.Context, course *model.Course) error
	ListCoursesByUser(ctx context.Context, userID string) ([]model.Course, error)
	// ListRecentCourses returns up to limit courses, most recently created first.
	ListRecentCourses(ctx context.Context, userID string, limit int) ([]model.Course, error)
	// GetCourseByLesson returns the course owned by userID that contains
	// the lesson, or apperror.ErrNotFound.
	GetCourseByLesson(ctx context.Context, userID, lessonID string) (*model.Course, error)
}

type ProgressRepository interface {
	// UpsertProgress is keyed on (user_id, course_id): the first save
	// inserts, later saves overwrite every field except id and created_at.
	UpsertProgress(ctx context.Context, progress *model.UserProgress) error
	ListProgressByUser(ctx context.Context, userID string) ([]model.UserProgress, error)
}
