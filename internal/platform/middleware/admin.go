package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"urec/pkg/requestcontext"
)

// RequireAdminToken gates admin routes behind a shared token carried in the
// X-Admin-Token header. When no token is configured the middleware rejects
// every request; admin surfaces are opt-in.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-Admin-Token")
			if token == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin access denied",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","error_description":"Missing or invalid admin token"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
