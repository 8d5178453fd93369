package model

import "time"

// Mode controls how many lessons a course gets and how long each one is.
type Mode string

const (
	ModeQuick    Mode = "Quick"
	ModeDetailed Mode = "Detailed"
	ModeMixed    Mode = "Mixed"
)

// LessonCount returns the number of lessons requested from the oracle for
// this mode. Unrecognized modes fall back to 4.
func (m Mode) LessonCount() int {
	switch m {
	case ModeQuick:
		return 3
	case ModeDetailed:
		return 6
	case ModeMixed:
		return 4
	default:
		return 4
	}
}

// LengthGuidance is the per-lesson length hint embedded in the synthesis prompt.
func (m Mode) LengthGuidance() string {
	switch m {
	case ModeQuick:
		return "Short, focused lessons (2-3 paragraphs each)"
	case ModeDetailed:
		return "In-depth lessons (4-5 paragraphs each)"
	default:
		return "Balanced approach (3-4 paragraphs each)"
	}
}

// VideoCandidate is a scored search result. Candidates are computed per
// request and only persisted as part of the Course that selected them.
type VideoCandidate struct {
	VideoID         string  `json:"video_id"`
	Title           string  `json:"title"`
	Duration        string  `json:"duration"` // ISO-8601 duration code, e.g. "PT7M12S"
	ViewCount       int64   `json:"view_count"`
	ChannelName     string  `json:"channel_name"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	EngagementScore float64 `json:"engagement_score"` // likes / max(views,1) * 100
}

// Lesson is one unit of a course. Immutable once created; Order is the
// 1-based position within the owning course.
type Lesson struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	VideoID string `json:"video_id,omitempty"`
	Order   int    `json:"order"`
}

// Course is a generated course owned by exactly one user.
type Course struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Topic     string           `json:"topic"`
	Language  string           `json:"language"`
	Mode      Mode             `json:"mode"`
	Lessons   []Lesson         `json:"lessons"`
	Videos    []VideoCandidate `json:"videos"` // ranked order preserved
	CreatedAt time.Time        `json:"created_at"`
}

// UserProgress tracks a user's advancement through one course. At most one
// record exists per (user, course) pair; saves are upserts on that key.
type UserProgress struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	CourseID         string            `json:"course_id"`
	Topic            string            `json:"topic"`
	Language         string            `json:"language"`
	Mode             Mode              `json:"mode"`
	LessonsCompleted []string          `json:"lessons_completed"`
	QuizScores       map[string]int    `json:"quiz_scores"`
	Notes            map[string]string `json:"notes"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
