package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteError writes an ErrorResponse with the given status. The request id
// that RequestID put on the response headers is echoed in the body.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	body := ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: w.Header().Get(RequestIDHeader),
	}

	if err := WriteJSON(w, status, body); err != nil {
		slog.Error("write error response", "status", status, "code", code, "err", err)
	}
}

// WriteJSON encodes data as the response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
