package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user. The email column is UNIQUE; a duplicate insert
// surfaces as apperror.ErrConflict so the service layer never has to parse
// driver error strings.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = xid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.LastLogin.IsZero() {
		user.LastLogin = now
	}
	if user.Badges == nil {
		user.Badges = []string{}
	}
	if user.CoursesEnrolled == nil {
		user.CoursesEnrolled = []string{}
	}

	badges, err := json.Marshal(user.Badges)
	if err != nil {
		return fmt.Errorf("sqlite: encoding badges: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, picture, password_hash, badges, streak_count, created_at, last_login)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.Picture,
		user.PasswordHash,
		string(badges),
		user.StreakCount,
		user.CreatedAt,
		user.LastLogin,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user already exists with email " + user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}
	return nil
}

// GetUserByID retrieves a user with their enrolled-course set.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

// GetUserByEmail retrieves a user by their unique email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u      model.User
		badges string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, picture, password_hash, badges, streak_count, created_at, last_login
		 FROM users `+where, arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Picture,
		&u.PasswordHash,
		&badges,
		&u.StreakCount,
		&u.CreatedAt,
		&u.LastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", fmt.Sprintf("%v", arg))
		}
		return nil, fmt.Errorf("sqlite: getting user %v: %w", arg, err)
	}

	if err := json.Unmarshal([]byte(badges), &u.Badges); err != nil {
		return nil, fmt.Errorf("sqlite: decoding badges for user %s: %w", u.ID, err)
	}

	enrolled, err := db.enrolledCourses(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.CoursesEnrolled = enrolled

	return &u, nil
}

func (db *DB) enrolledCourses(ctx context.Context, userID string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT course_id FROM enrollments WHERE user_id = ? ORDER BY rowid`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing enrollments for user %s: %w", userID, err)
	}
	defer rows.Close()

	enrolled := []string{}
	for rows.Next() {
		var courseID string
		if err := rows.Scan(&courseID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning enrollment: %w", err)
		}
		enrolled = append(enrolled, courseID)
	}
	return enrolled, rows.Err()
}

// TouchLastLogin records a successful authentication event.
func (db *DB) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: touching last_login for user %s: %w", id, err)
	}
	return nil
}

// AddEnrolledCourse performs a set-insert: INSERT OR IGNORE keeps the
// (user, course) pair unique in a single atomic statement.
func (db *DB) AddEnrolledCourse(ctx context.Context, userID, courseID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO enrollments (user_id, course_id) VALUES (?, ?)`,
		userID, courseID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: enrolling user %s in course %s: %w", userID, courseID, err)
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// modernc.org/sqlite exposes no typed error for this, so we match the
// constraint message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
