package predictionhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmiddleware "github.com/tipping-league/prediction-core/app/modules/auth/infrastructure/middleware"
	predictionservice "github.com/tipping-league/prediction-core/app/modules/prediction/application"
	predictiondomain "github.com/tipping-league/prediction-core/app/modules/prediction/domain"
	"github.com/tipping-league/prediction-core/app/shared/apperr"
	"github.com/tipping-league/prediction-core/app/shared/httpx"
)

const maxBodyBytes = 64 << 10

// Handlers exposes the prediction service over HTTP.
type Handlers struct {
	service predictionservice.Service
	logger  *slog.Logger
}

func NewHandlers(service predictionservice.Service, logger *slog.Logger) *Handlers {
	return &Handlers{service: service, logger: logger}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	httpx.WriteError(w, r, h.logger, err)
}

// caller returns the authenticated user id.
func caller(r *http.Request) (string, *apperr.Error) {
	claims, ok := authmiddleware.ClaimsFromContext(r.Context())
	if !ok {
		return "", apperr.Unauthorized("Missing bearer token")
	}
	return claims.UserID, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, *apperr.Error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.BadRequest("Invalid " + name)
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) *apperr.Error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.BadRequest("Request body is required")
		}
		return apperr.Wrap(apperr.CodeBadRequest, "Invalid JSON body", err)
	}
	return nil
}

// submitHandler decodes P, pins its event id to the path and submits it.
func submitHandler[P any](
	h *Handlers,
	setEventID func(*P, uuid.UUID),
	submit func(ctx context.Context, userID string, payload P) (*predictionservice.SubmitResult, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, failure := caller(r)
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}
		eventID, failure := pathUUID(r, "eventID")
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}

		var payload P
		if failure := decodeBody(r, &payload); failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}
		setEventID(&payload, eventID)

		result, err := submit(r.Context(), userID, payload)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !result.Success {
			httpx.WriteJSON(w, result.Error.Status, result)
			return
		}
		status := http.StatusCreated
		if result.Updated {
			status = http.StatusOK
		}
		httpx.WriteJSON(w, status, result)
	}
}

func (h *Handlers) friendPredictions(kind predictiondomain.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, failure := caller(r)
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}
		eventID, failure := pathUUID(r, "eventID")
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}

		result, err := h.service.FriendPredictions(r.Context(), kind, eventID, userID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, result)
	}
}

func (h *Handlers) myWager(kind predictiondomain.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, failure := caller(r)
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}
		eventID, failure := pathUUID(r, "eventID")
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}

		view, err := h.service.GetMyWager(r.Context(), kind, eventID, userID)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, view)
	}
}

func (h *Handlers) evaluate(kind predictiondomain.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, failure := caller(r)
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}
		eventID, failure := pathUUID(r, "eventID")
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}

		req := predictionservice.EvaluateRequest{EventID: eventID, RequestedBy: adminID}
		if userID := r.URL.Query().Get("userId"); userID != "" {
			req.UserID = &userID
		}

		resp, err := h.service.Evaluate(r.Context(), kind, req)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if !resp.Success {
			httpx.WriteJSON(w, resp.Error.Status, resp)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}

func (h *Handlers) evaluateAll(kind predictiondomain.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, failure := caller(r)
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}
		leagueID, failure := pathUUID(r, "leagueID")
		if failure != nil {
			httpx.WriteAppError(w, failure)
			return
		}

		summary, err := h.service.EvaluateAll(r.Context(), leagueID, kind, adminID)
		if err != nil {
			if summary != nil {
				h.logger.WarnContext(r.Context(), "Evaluate-all stopped early",
					slog.String("league_id", leagueID.String()),
					slog.Int("evaluated", len(summary.Evaluated)),
				)
			}
			h.fail(w, r, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, summary)
	}
}
