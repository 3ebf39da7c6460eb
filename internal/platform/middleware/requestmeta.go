package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"urec/pkg/requestcontext"
)

// RequestMeta stamps each request with an ID and a fixed request time.
// Services read both through pkg/requestcontext, so every timestamp written
// during one request observes the same instant.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = requestcontext.WithRequestID(ctx, requestID)
		ctx = requestcontext.WithTime(ctx, requestcontext.Now(ctx))

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
