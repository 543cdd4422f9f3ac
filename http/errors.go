package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sagarc03/filekeep"
)

// HandleError maps a registry or authentication error to a JSON response.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, filekeep.ErrOwnershipViolation):
		slog.InfoContext(ctx, "ownership violation", "request_id", RequestIDFromContext(ctx), "error", err)
		WriteError(w, http.StatusForbidden, "ownership_violation", filekeep.ErrOwnershipViolation.Error())
	case errors.Is(err, filekeep.ErrUnauthorized):
		slog.InfoContext(ctx, "unauthorized request", "request_id", RequestIDFromContext(ctx), "error", err)
		WriteError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, filekeep.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, filekeep.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		slog.DebugContext(ctx, "request cancelled", "request_id", RequestIDFromContext(ctx))
		WriteError(w, http.StatusServiceUnavailable, "cancelled", "Request cancelled")
	default:
		slog.ErrorContext(ctx, "request error", "request_id", RequestIDFromContext(ctx), "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
