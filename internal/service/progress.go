package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/repository"
)

// ProgressService saves and lists per-course progress records.
type ProgressService struct {
	progress repository.ProgressRepository
	logger   *slog.Logger
}

// NewProgressService wires a ProgressService.
func NewProgressService(progress repository.ProgressRepository, logger *slog.Logger) *ProgressService {
	return &ProgressService{progress: progress, logger: logger}
}

// Save upserts the caller's progress for one course. The owner is always the
// authenticated caller; any user id in the submitted record is overwritten,
// so a client can never write progress into another account.
func (s *ProgressService) Save(ctx context.Context, userID string, record *model.UserProgress) error {
	if record.CourseID == "" {
		return apperror.ValidationFailed("course_id", "course id is required")
	}
	record.UserID = userID

	if err := s.progress.UpsertProgress(ctx, record); err != nil {
		return fmt.Errorf("service: saving progress: %w", err)
	}

	s.logger.Debug("progress saved",
		slog.String("userID", userID),
		slog.String("courseID", record.CourseID),
	)
	return nil
}

// List returns every progress record the caller owns.
func (s *ProgressService) List(ctx context.Context, userID string) ([]model.UserProgress, error) {
	return s.progress.ListProgressByUser(ctx, userID)
}
