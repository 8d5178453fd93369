package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/learnloop/internal/apperror"
	"github.com/sakif/learnloop/internal/auth"
	"github.com/sakif/learnloop/internal/model"
	"github.com/sakif/learnloop/internal/service"
)

// ProgressHandler exposes progress saves and reads.
type ProgressHandler struct {
	progress *service.ProgressService
	logger   *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(progress *service.ProgressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger}
}

// HandleSave upserts the caller's progress for one course.
//
// HTTP: POST /api/progress
func (h *ProgressHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	var record model.UserProgress
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	if err := h.progress.Save(r.Context(), user.ID, &record); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "progress saved"})
}

// HandleList returns every progress record the caller owns.
//
// HTTP: GET /api/progress
func (h *ProgressHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated())
		return
	}

	records, err := h.progress.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"progress": records})
}
