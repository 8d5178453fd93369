package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

// CreateSession note: sessions are insert-only. Expiry is enforced in
// GetActiveByToken, and logout deletes by user, so no update path exists.
func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	if session.ID == "" {
		session.ID = xid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, token, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt.UTC(),
		session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting session for user %s: %w", session.UserID, err)
	}
	return nil
}

// GetActiveByToken matches the token exactly and excludes expired sessions
// in the query itself. Expired rows are left in place.
func (db *DB) GetActiveByToken(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	var s model.Session

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, token, expires_at, created_at
		 FROM sessions WHERE token = ? AND expires_at > ?`,
		token, now.UTC(),
	).Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", "token")
		}
		return nil, fmt.Errorf("sqlite: looking up session: %w", err)
	}

	return &s, nil
}

// DeleteByUser removes every session the user owns, across all devices.
// Deleting zero rows is not an error.
func (db *DB) DeleteByUser(ctx context.Context, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = ?`, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting sessions for user %s: %w", userID, err)
	}
	return nil
}
