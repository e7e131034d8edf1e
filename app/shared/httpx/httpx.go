package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/observability"
	"github.com/tipping-league/prediction-core/app/shared/txrunner"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Success bool          `json:"success"`
	Error   *apperr.Error `json:"error"`
}

// WriteJSON encodes v with status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteAppError writes a domain error with its own status.
func WriteAppError(w http.ResponseWriter, e *apperr.Error) {
	status := e.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, ErrorBody{Success: false, Error: e})
}

// WriteError maps err onto a response. Domain errors keep their code,
// classified serialization conflicts become 409 and anything else is a 500.
func WriteError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if e, ok := apperr.As(err); ok {
		WriteAppError(w, e)
		return
	}

	ctx := r.Context()
	if txrunner.IsConflict(err) {
		logger.WarnContext(ctx, "Request lost a concurrent update", observability.CorrelationID(ctx), observability.Err(err))
		WriteAppError(w, apperr.Conflict("The request conflicted with a concurrent update, please retry"))
		return
	}

	logger.ErrorContext(ctx, "Request failed", observability.CorrelationID(ctx), observability.Err(err))
	WriteAppError(w, &apperr.Error{
		Code:    "INTERNAL",
		Status:  http.StatusInternalServerError,
		Message: "Internal server error",
	})
}
