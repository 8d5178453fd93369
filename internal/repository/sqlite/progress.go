package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
)

var _ repository.ProgressRepository = (*DB)(nil)

// UpsertProgress inserts or overwrites the progress record for
// (user_id, course_id) in a single statement. On conflict every field is
// replaced except id and created_at, which keep the values of the first save.
func (db *DB) UpsertProgress(ctx context.Context, progress *model.UserProgress) error {
	if progress.ID == "" {
		progress.ID = xid.New().String()
	}
	now := time.Now().UTC()
	if progress.CreatedAt.IsZero() {
		progress.CreatedAt = now
	}
	progress.UpdatedAt = now

	if progress.LessonsCompleted == nil {
		progress.LessonsCompleted = []string{}
	}
	if progress.QuizScores == nil {
		progress.QuizScores = map[string]int{}
	}
	if progress.Notes == nil {
		progress.Notes = map[string]string{}
	}

	completed, err := json.Marshal(progress.LessonsCompleted)
	if err != nil {
		return fmt.Errorf("sqlite: encoding lessons_completed: %w", err)
	}
	scores, err := json.Marshal(progress.QuizScores)
	if err != nil {
		return fmt.Errorf("sqlite: encoding quiz_scores: %w", err)
	}
	notes, err := json.Marshal(progress.Notes)
	if err != nil {
		return fmt.Errorf("sqlite: encoding notes: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO progress (id, user_id, course_id, topic, language, mode, lessons_completed, quiz_scores, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, course_id) DO UPDATE SET
			topic             = excluded.topic,
			language          = excluded.language,
			mode              = excluded.mode,
			lessons_completed = excluded.lessons_completed,
			quiz_scores       = excluded.quiz_scores,
			notes             = excluded.notes,
			updated_at        = excluded.updated_at`,
		progress.ID,
		progress.UserID,
		progress.CourseID,
		progress.Topic,
		progress.Language,
		string(progress.Mode),
		string(completed),
		string(scores),
		string(notes),
		progress.CreatedAt,
		progress.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: upserting progress for course %s: %w", progress.CourseID, err)
	}
	return nil
}

// ListProgressByUser returns every progress record the user owns.
func (db *DB) ListProgressByUser(ctx context.Context, userID string) ([]model.UserProgress, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, course_id, topic, language, mode, lessons_completed, quiz_scores, notes, created_at, updated_at
		 FROM progress WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing progress for user %s: %w", userID, err)
	}
	defer rows.Close()

	records := []model.UserProgress{}
	for rows.Next() {
		var (
			p         model.UserProgress
			mode      string
			completed string
			scores    string
			notes     string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseID, &p.Topic, &p.Language, &mode, &completed, &scores, &notes, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning progress: %w", err)
		}
		p.Mode = model.Mode(mode)
		if err := json.Unmarshal([]byte(completed), &p.LessonsCompleted); err != nil {
			return nil, fmt.Errorf("sqlite: decoding lessons_completed for %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(scores), &p.QuizScores); err != nil {
			return nil, fmt.Errorf("sqlite: decoding quiz_scores for %s: %w", p.ID, err)
		}
		if err := json.Unmarshal([]byte(notes), &p.Notes); err != nil {
			return nil, fmt.Errorf("sqlite: decoding notes for %s: %w", p.ID, err)
		}
		records = append(records, p)
	}
	return records, rows.Err()
}
