package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sagarc03/filekeep"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-Id"

// RequestVerifier resolves the identity behind a request.
// *filekeep.SignatureVerifier and HeaderVerifier implement it.
type RequestVerifier interface {
	Verify(r *http.Request) (filekeep.Account, error)
}

// HeaderVerifier trusts an identity header set by a fronting proxy.
type HeaderVerifier struct {
	Header string
}

// Verify returns the value of the configured header.
func (v HeaderVerifier) Verify(r *http.Request) (filekeep.Account, error) {
	caller := strings.TrimSpace(r.Header.Get(v.Header))
	if caller == "" {
		return "", fmt.Errorf("missing %s header: %w", v.Header, filekeep.ErrUnauthorized)
	}
	return filekeep.Account(caller), nil
}

type callerKey struct{}

type requestIDKey struct{}

// CallerFromContext returns the identity AuthMiddleware attached to ctx.
func CallerFromContext(ctx context.Context) (filekeep.Account, bool) {
	caller, ok := ctx.Value(callerKey{}).(filekeep.Account)
	return caller, ok
}

// RequestIDFromContext returns the id RequestID attached to ctx.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// AuthMiddleware resolves the caller with verifier and stores it in the
// request context. Pass nil for public access.
func AuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := verifier.Verify(r)
			if err != nil {
				HandleError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), callerKey{}, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID reuses a client supplied X-Request-Id or generates a new one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestLogger logs one line per request once it completes.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logger.LogAttrs(r.Context(), level, "request",
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
