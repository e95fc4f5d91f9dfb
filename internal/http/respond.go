package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gustalya/gustalya/internal/cooking"
	"github.com/gustalya/gustalya/internal/domain"
	"github.com/gustalya/gustalya/internal/extract"
	"github.com/gustalya/gustalya/internal/runner"
	"github.com/gustalya/gustalya/internal/storage"
	"github.com/gustalya/gustalya/internal/timer"
)

const maxJSONBody = 1 << 20

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Default().Warn("failed to encode response", slog.Any("error", err))
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// respondErr maps domain errors to status codes. Anything unknown is logged
// and reported as a 500 without details.
func (s *Server) respondErr(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		respondError(w, "internal error", status)
		return
	}
	respondError(w, err.Error(), status)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, runner.ErrKitchenNotFound),
		errors.Is(err, storage.ErrRecipeNotFound),
		errors.Is(err, cooking.ErrRecipeNotCooking),
		errors.Is(err, errTimerNotFound):
		return http.StatusNotFound
	case errors.Is(err, runner.ErrKitchenExists),
		errors.Is(err, runner.ErrAlreadyCooking),
		errors.Is(err, runner.ErrKitchenClosed),
		errors.Is(err, runner.ErrNotCooking),
		errors.Is(err, cooking.ErrDuplicateRecipe),
		errors.Is(err, cooking.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, timer.ErrInvalidDuration),
		errors.Is(err, cooking.ErrNoRecipes),
		errors.Is(err, cooking.ErrRecipeRefMissing),
		errors.Is(err, cooking.ErrUnknownCommand),
		errors.Is(err, domain.ErrRecipeTitleRequired),
		errors.Is(err, domain.ErrRecipeNoSteps),
		errors.Is(err, domain.ErrStepInstructionRequired),
		errors.Is(err, extract.ErrInvalidURL),
		errors.Is(err, extract.ErrEmptyImage),
		errors.Is(err, extract.ErrUnsupportedImage):
		return http.StatusBadRequest
	case errors.Is(err, extract.ErrNoRecipeFound),
		errors.Is(err, extract.ErrEmptyPage):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errRecipeReadOnly):
		return http.StatusForbidden
	case errors.Is(err, extract.ErrAPIKeyRequired),
		errors.Is(err, errExtractionDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
