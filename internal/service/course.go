package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
	"github.com/sakif/learnloop/internal/youtube"
)

// recentCourseLimit is how many courses the dashboard shows.
const recentCourseLimit = 5

// Collaborator contracts for the course pipeline. The concrete
// implementations live in youtube, transcript and genai; tests plug fakes.
type videoRanker interface {
	Rank(ctx context.Context, topic, language string, maxResults int) ([]model.VideoCandidate, error)
}

type corpusAggregator interface {
	Aggregate(ctx context.Context, videoIDs []string, topic string) string
}

type lessonSynthesizer interface {
	Synthesize(ctx context.Context, corpus, topic string, mode model.Mode) ([]model.Lesson, error)
}

type quizSynthesizer interface {
	Synthesize(ctx context.Context, lesson model.Lesson) model.Quiz
}

// CourseService runs the course-creation pipeline and serves course reads.
type CourseService struct {
	ranker     videoRanker
	aggregator corpusAggregator
	lessons    lessonSynthesizer
	quizzes    quizSynthesizer
	courses    repository.CourseRepository
	users      repository.UserRepository
	progress   repository.ProgressRepository
	logger     *slog.Logger
}

// NewCourseService wires a CourseService.
func NewCourseService(
	ranker videoRanker,
	aggregator corpusAggregator,
	lessons lessonSynthesizer,
	quizzes quizSynthesizer,
	courses repository.CourseRepository,
	users repository.UserRepository,
	progress repository.ProgressRepository,
	logger *slog.Logger,
) *CourseService {
	return &CourseService{
		ranker:     ranker,
		aggregator: aggregator,
		lessons:    lessons,
		quizzes:    quizzes,
		courses:    courses,
		users:      users,
		progress:   progress,
		logger:     logger,
	}
}

// Create runs the full pipeline for one course:
//
//	rank candidates → aggregate transcript corpus → synthesize lessons →
//	commit course + enrollment
//
// The first three steps touch no storage; nothing is written until
// synthesis has succeeded. A search that finds no candidates is NotFound.
// Synthesis that parses to zero lessons still commits: the course exists,
// just empty.
func (s *CourseService) Create(ctx context.Context, userID, topic, language string, mode model.Mode) (*model.Course, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperror.ValidationFailed("topic", "topic is required")
	}
	if language == "" {
		language = "English"
	}
	if mode == "" {
		mode = model.ModeMixed
	}

	candidates, err := s.ranker.Rank(ctx, topic, language, youtube.DefaultMaxResults)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("no suitable videos found for topic %q", topic),
		}
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.VideoID
	}
	corpus := s.aggregator.Aggregate(ctx, ids, topic)

	lessons, err := s.lessons.Synthesize(ctx, corpus, topic, mode)
	if err != nil {
		return nil, err
	}

	course := &model.Course{
		UserID:   userID,
		Topic:    topic,
		Language: language,
		Mode:     mode,
		Lessons:  lessons,
		Videos:   candidates,
	}
	if err := s.courses.CreateCourse(ctx, course); err != nil {
		return nil, fmt.Errorf("service: persisting course: %w", err)
	}

	if err := s.users.AddEnrolledCourse(ctx, userID, course.ID); err != nil {
		return nil, fmt.Errorf("service: enrolling user: %w", err)
	}

	s.logger.Info("course created",
		slog.String("courseID", course.ID),
		slog.String("topic", topic),
		slog.Int("lessons", len(lessons)),
	)
	return course, nil
}

// QuizForLesson generates a quiz for a lesson the caller owns. Quizzes are
// synthesized fresh on every call, never cached. A lesson outside the
// caller's courses is NotFound; generation itself cannot fail outright, the
// synthesizer degrades to its fallback quiz instead.
func (s *CourseService) QuizForLesson(ctx context.Context, userID, lessonID string) (model.Quiz, error) {
	course, err := s.courses.GetCourseByLesson(ctx, userID, lessonID)
	if err != nil {
		return model.Quiz{}, err
	}

	var lesson model.Lesson
	for _, l := range course.Lessons {
		if l.ID == lessonID {
			lesson = l
			break
		}
	}
	if lesson.ID == "" {
		return model.Quiz{}, apperror.NotFound("lesson", lessonID)
	}

	return s.quizzes.Synthesize(ctx, lesson), nil
}

// ListForUser returns the caller's courses, oldest first.
func (s *CourseService) ListForUser(ctx context.Context, userID string) ([]model.Course, error) {
	return s.courses.ListCoursesByUser(ctx, userID)
}

// DashboardStats are the aggregate counters shown on the dashboard.
type DashboardStats struct {
	TotalCourses     int     `json:"total_courses"`
	LessonsCompleted int     `json:"lessons_completed"`
	AverageQuizScore float64 `json:"average_quiz_score"`
	StreakCount      int     `json:"streak_count"`
}

// Dashboard is the one-call summary for the landing view.
type Dashboard struct {
	User          *model.User          `json:"user"`
	Stats         DashboardStats       `json:"stats"`
	RecentCourses []model.Course       `json:"recent_courses"`
	Progress      []model.UserProgress `json:"progress"`
}

// Dashboard aggregates the caller's courses and progress into one summary:
// course count, completed-lesson total, mean quiz score across every
// recorded score (0 when none, rounded to one decimal), streak, and the 5
// most recently created courses.
func (s *CourseService) Dashboard(ctx context.Context, user *model.User) (*Dashboard, error) {
	courses, err := s.courses.ListCoursesByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: listing courses: %w", err)
	}

	recent, err := s.courses.ListRecentCourses(ctx, user.ID, recentCourseLimit)
	if err != nil {
		return nil, fmt.Errorf("service: listing recent courses: %w", err)
	}

	records, err := s.progress.ListProgressByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("service: listing progress: %w", err)
	}

	var (
		completed  int
		scoreSum   int
		scoreCount int
	)
	for _, p := range records {
		completed += len(p.LessonsCompleted)
		for _, score := range p.QuizScores {
			scoreSum += score
			scoreCount++
		}
	}

	var average float64
	if scoreCount > 0 {
		average = math.Round(float64(scoreSum)/float64(scoreCount)*10) / 10
	}

	return &Dashboard{
		User: user,
		Stats: DashboardStats{
			TotalCourses:     len(courses),
			LessonsCompleted: completed,
			AverageQuizScore: average,
			StreakCount:      user.StreakCount,
		},
		RecentCourses: recent,
		Progress:      records,
	}, nil
}
