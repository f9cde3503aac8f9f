package middleware

import (
	"context"
	"net/http"
	"strings"

	"lecturer-booking-api/internal/auth"
)

type ctxKey string

const LecturerUUIDKey ctxKey = "lecturer_uuid"

// LecturerUUID returns the authenticated lecturer's uuid, or "".
func LecturerUUID(ctx context.Context) string {
	v, _ := ctx.Value(LecturerUUIDKey).(string)
	return v
}

// Auth requires a valid bearer token and stores the lecturer uuid on the
// request context.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// token from Authorization: Bearer <jwt>
			raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if raw == "" {
				http.Error(w, "no token", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				http.Error(w, "bad token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), LecturerUUIDKey, claims.UUID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
