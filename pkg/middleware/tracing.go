package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const traceContextKey contextKey = "trace_id"

// Trace extracts the X-Trace-Id header, generating one when absent, and
// echoes it on the response so clients can correlate logs.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = uuid.New().String()
		}

		w.Header().Set("X-Trace-Id", traceID)

		ctx := context.WithValue(r.Context(), traceContextKey, traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TraceID retrieves the trace id from the request context.
func TraceID(r *http.Request) string {
	if id, ok := r.Context().Value(traceContextKey).(string); ok {
		return id
	}
	return ""
}
