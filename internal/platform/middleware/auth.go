package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"holly/pkg/requestcontext"
)

// RequireSharedSecret authenticates requests from the external scheduler and
// admin tooling using a bearer token compared in constant time. The trigger
// surface is machine-to-machine only, so a shared secret stands in for a full
// identity layer.
func RequireSharedSecret(secret string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
				ctx := r.Context()
				logger.WarnContext(ctx, "unauthorized access - bad or missing trigger secret",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"Missing or invalid bearer token"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
