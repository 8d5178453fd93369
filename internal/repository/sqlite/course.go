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

var _ repository.CourseRepository = (*DB)(nil)

// CreateCourse persists a course together with its lessons and selected
// video candidates in one transaction. A course is never partially written:
// either the whole graph commits or nothing does.
func (db *DB) CreateCourse(ctx context.Context, course *model.Course) error {
	if course.ID == "" {
		course.ID = xid.New().String()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning course transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO courses (id, user_id, topic, language, mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		course.ID,
		course.UserID,
		course.Topic,
		course.Language,
		string(course.Mode),
		course.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting course: %w", err)
	}

	for i := range course.Lessons {
		lesson := &course.Lessons[i]
		if lesson.ID == "" {
			lesson.ID = xid.New().String()
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO lessons (id, course_id, title, content, video_id, ord)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			lesson.ID,
			course.ID,
			lesson.Title,
			lesson.Content,
			lesson.VideoID,
			lesson.Order,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting lesson %d: %w", lesson.Order, err)
		}
	}

	for i, v := range course.Videos {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO course_videos (course_id, position, video_id, title, duration, view_count, channel_name, thumbnail_url, engagement_score)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			course.ID,
			i,
			v.VideoID,
			v.Title,
			v.Duration,
			v.ViewCount,
			v.ChannelName,
			v.ThumbnailURL,
			v.EngagementScore,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting course video %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing course: %w", err)
	}
	return nil
}

// ListCoursesByUser returns the user's courses, oldest first, each with its
// full lesson and video sequences.
func (db *DB) ListCoursesByUser(ctx context.Context, userID string) ([]model.Course, error) {
	return db.listCourses(ctx,
		`SELECT id, user_id, topic, language, mode, created_at
		 FROM courses WHERE user_id = ? ORDER BY created_at ASC`,
		userID,
	)
}

// ListRecentCourses returns up to limit courses, newest first.
func (db *DB) ListRecentCourses(ctx context.Context, userID string, limit int) ([]model.Course, error) {
	return db.listCourses(ctx,
		`SELECT id, user_id, topic, language, mode, created_at
		 FROM courses WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`,
		userID, limit,
	)
}

func (db *DB) listCourses(ctx context.Context, query string, args ...any) ([]model.Course, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing courses: %w", err)
	}
	defer rows.Close()

	courses := []model.Course{}
	for rows.Next() {
		var (
			c    model.Course
			mode string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Topic, &c.Language, &mode, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning course: %w", err)
		}
		c.Mode = model.Mode(mode)
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating courses: %w", err)
	}

	for i := range courses {
		if err := db.loadCourseChildren(ctx, &courses[i]); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// GetCourseByLesson finds the course owned by userID that contains lessonID.
func (db *DB) GetCourseByLesson(ctx context.Context, userID, lessonID string) (*model.Course, error) {
	var (
		c    model.Course
		mode string
	)

	err := db.conn.QueryRowContext(ctx,
		`SELECT c.id, c.user_id, c.topic, c.language, c.mode, c.created_at
		 FROM courses c JOIN lessons l ON l.course_id = c.id
		 WHERE l.id = ? AND c.user_id = ?`,
		lessonID, userID,
	).Scan(&c.ID, &c.UserID, &c.Topic, &c.Language, &mode, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("lesson", lessonID)
		}
		return nil, fmt.Errorf("sqlite: getting course by lesson %s: %w", lessonID, err)
	}
	c.Mode = model.Mode(mode)

	if err := db.loadCourseChildren(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) loadCourseChildren(ctx context.Context, c *model.Course) error {
	lessonRows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, content, video_id, ord
		 FROM lessons WHERE course_id = ? ORDER BY ord ASC`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: listing lessons for course %s: %w", c.ID, err)
	}
	defer lessonRows.Close()

	c.Lessons = []model.Lesson{}
	for lessonRows.Next() {
		var l model.Lesson
		if err := lessonRows.Scan(&l.ID, &l.Title, &l.Content, &l.VideoID, &l.Order); err != nil {
			return fmt.Errorf("sqlite: scanning lesson: %w", err)
		}
		c.Lessons = append(c.Lessons, l)
	}
	if err := lessonRows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating lessons: %w", err)
	}

	videoRows, err := db.conn.QueryContext(ctx,
		`SELECT video_id, title, duration, view_count, channel_name, thumbnail_url, engagement_score
		 FROM course_videos WHERE course_id = ? ORDER BY position ASC`,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: listing videos for course %s: %w", c.ID, err)
	}
	defer videoRows.Close()

	c.Videos = []model.VideoCandidate{}
	for videoRows.Next() {
		var v model.VideoCandidate
		if err := videoRows.Scan(&v.VideoID, &v.Title, &v.Duration, &v.ViewCount, &v.ChannelName, &v.ThumbnailURL, &v.EngagementScore); err != nil {
			return fmt.Errorf("sqlite: scanning course video: %w", err)
		}
		c.Videos = append(c.Videos, v)
	}
	return videoRows.Err()
}
