package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/jwtauth"
)

// Middleware resolves the bearer token of each request into an Identity.
// Requests without a valid token pass through anonymously; the service
// decides whether anonymous callers may proceed.
func Middleware(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := jwtauth.TokenFromHeader(r)
			if raw == "" || v == nil {
				next.ServeHTTP(w, r)
				return
			}

			id, err := v.Verify(r.Context(), raw)
			if err != nil {
				slog.Debug("Rejected bearer token", "path", r.URL.Path, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), id)))
		})
	}
}
