package middleware

import (
	"context"
	"log/slog"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/learnloop/learnloop-api/internal/api/shared"
	"github.com/learnloop/learnloop-api/internal/platform/logger"
)

// Trace gives every request a trace id and a request-scoped logger derived
// from base. When chi's RequestID middleware ran first, its id is reused so
// the access log and the application log agree.
func Trace(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var ctx context.Context
			if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
				ctx = context.WithValue(r.Context(), shared.TraceIDKey, reqID)
			} else {
				ctx = shared.SetTraceID(r.Context())
			}

			log := base.With(slog.String("trace_id", shared.GetTraceID(ctx)))
			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			next.ServeHTTP(w, r.WithContext(logger.WithLogger(ctx, log)))
		})
	}
}
