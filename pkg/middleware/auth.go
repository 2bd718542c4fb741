package middleware

import (
	"context"
	"net/http"
	"strings"

	"safe-haven/pkg/response"
	"safe-haven/pkg/token"
)

type contextKey string

const userContextKey contextKey = "user_id"

// Auth verifies the bearer token and stores the authenticated user id in the
// request context. The token is accepted from the Authorization header or,
// for older clients, from x-auth-token.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				response.Error(w, http.StatusUnauthorized, "No token, authorization denied", "")
				return
			}

			claims, err := token.Parse(secret, raw)
			if err != nil {
				response.Error(w, http.StatusUnauthorized, "Token is not valid", err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw := strings.TrimPrefix(h, "Bearer "); raw != h {
			return raw
		}
		return ""
	}
	// legacy header
	return r.Header.Get("x-auth-token")
}

// UserID returns the authenticated user id stored by Auth.
func UserID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(userContextKey).(string)
	return id, ok && id != ""
}

// WithUserID is a test helper for building requests that already carry an
// authenticated identity.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userContextKey, id)
}
