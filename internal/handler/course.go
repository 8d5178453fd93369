package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/auth"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/service"
)

// CourseHandler exposes course creation, listing, quizzes and the dashboard.
type CourseHandler struct {
	courses *service.CourseService
	logger  *slog.Logger
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courses *service.CourseService, logger *slog.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, logger: logger}
}

// HandleCreateCourse runs the generation pipeline for the caller.
//
// HTTP: POST /api/create-course
func (h *CourseHandler) HandleCreateCourse(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	var req struct {
		Topic    string     `json:"topic"`
		Language string     `json:"language"`
		Mode     model.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	course, err := h.courses.Create(r.Context(), user.ID, req.Topic, req.Language, req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, course)
}

// HandleQuiz generates a quiz for one of the caller's lessons. Always fresh,
// never cached.
//
// HTTP: GET /api/quiz/{lessonID}
func (h *CourseHandler) HandleQuiz(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	lessonID := chi.URLParam(r, "lessonID")
	quiz, err := h.courses.QuizForLesson(r.Context(), user.ID, lessonID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// HandleMyCourses lists the caller's courses, oldest first.
//
// HTTP: GET /api/my-courses
func (h *CourseHandler) HandleMyCourses(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	courses, err := h.courses.ListForUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"courses": courses})
}

// HandleDashboard returns the caller's aggregate summary.
//
// HTTP: GET /api/dashboard
func (h *CourseHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	dashboard, err := h.courses.Dashboard(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dashboard)
}
