package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"

	"github.com/samandr77/crm/internal/entity"
)

type ErrorResponse struct {
	Message     string `json:"message"`
	Description string `json:"description,omitempty"`
}

func SendJSONErr(ctx context.Context, w http.ResponseWriter, code int, originErr error, msgToSend string) {
	resp := ErrorResponse{Message: msgToSend}

	if originErr != nil {
		slog.ErrorContext(ctx, "api error", "error", originErr.Error(), "code", code)

		// storage details stay in the log
		if code < http.StatusInternalServerError {
			resp.Description = originErr.Error()
		}
	}

	SendJSON(ctx, w, code, resp)
}

func SendJSON(ctx context.Context, w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	err := json.NewEncoder(w).Encode(data)
	if err != nil {
		code = http.StatusInternalServerError
		http.Error(w, http.StatusText(code), code)

		slog.ErrorContext(ctx, "encode response", "error", err)
	}
}

// SendErr maps an error kind to its HTTP status.
func SendErr(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, entity.ErrValidation):
		SendJSONErr(ctx, w, http.StatusBadRequest, err, "Invalid input")
	case errors.Is(err, entity.ErrTooManyAttempts):
		SendJSONErr(ctx, w, http.StatusTooManyRequests, err, "Too many attempts")
	case errors.Is(err, entity.ErrUnauthorized):
		SendJSONErr(ctx, w, http.StatusUnauthorized, err, "Authentication failed")
	case errors.Is(err, entity.ErrForbidden):
		SendJSONErr(ctx, w, http.StatusForbidden, err, "Not enough permissions")
	case errors.Is(err, entity.ErrNotFound):
		SendJSONErr(ctx, w, http.StatusNotFound, err, "Not found")
	case errors.Is(err, entity.ErrAlreadyExists), errors.Is(err, entity.ErrConflict):
		SendJSONErr(ctx, w, http.StatusConflict, err, "Conflict")
	default:
		SendJSONErr(ctx, w, http.StatusInternalServerError, err, msg)
	}
}

func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", entity.ErrValidation, err)
	}

	return nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s is not a valid id", entity.ErrValidation, name)
	}

	return id, nil
}

// optionalUUIDQuery returns nil when the query parameter is absent.
func optionalUUIDQuery(r *http.Request, name string) (*uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil //nolint:nilnil
	}

	id, err := uuid.FromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a valid id", entity.ErrValidation, name)
	}

	return &id, nil
}

func callerFromRequest(r *http.Request) (entity.Caller, error) {
	c, err := entity.CallerFromContext(r.Context())
	if err != nil {
		return entity.Caller{}, fmt.Errorf("%w: no caller in context", entity.ErrUnauthorized)
	}

	return c, nil
}
