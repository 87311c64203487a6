package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calvinalkan/cycle-count/internal/logging"
)

// Headers read or set by the middleware.
const (
	HeaderRequestID = "X-Request-Id"
	HeaderSessionID = "X-Session-Id"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// NewLoggingMiddleware tags each request with a request id (taken from
// X-Request-Id or freshly minted), echoes it back and logs the outcome.
func NewLoggingMiddleware(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqID := r.Header.Get(HeaderRequestID)
			if reqID == "" {
				id, err := uuid.NewV7()
				if err != nil {
					id = uuid.New()
				}

				reqID = id.String()
			}

			ctx := logging.ContextWithLogger(r.Context(), logger)
			ctx = logging.ContextWithRequestID(ctx, reqID)
			r = r.WithContext(ctx)

			w.Header().Set(HeaderRequestID, reqID)
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			logger.Info(ctx, "request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", sw.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

type sessionKey struct{}

// NewSessionMiddleware puts the caller's X-Session-Id on the request context,
// minting one when the header is absent, and echoes the id back. Preferences
// for the id are looked up by the handlers.
func NewSessionMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderSessionID)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(HeaderSessionID, id)

			ctx := context.WithValue(r.Context(), sessionKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)

	return id
}
