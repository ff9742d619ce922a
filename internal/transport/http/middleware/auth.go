package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	jwtinfra "github.com/Babar-Jawad-Anjum/advanced-auth-api/internal/infrastructure/jwt"
)

type contextKey string

const ClaimsKey contextKey = "claims"

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "token"

// Auth returns middleware that validates the session cookie and injects
// claims into context. A missing cookie and a failed verification are
// reported separately: the first means the caller never authenticated, the
// second that their credential is tampered with or expired.
func Auth(provider *jwtinfra.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				writeJSONError(w, http.StatusUnauthorized, "no auth token provided")
				return
			}
			claims, err := provider.Verify(cookie.Value)
			if err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid auth token")
				return
			}
			ctx := context.WithValue(r.Context(), ClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ClaimsFromContext extracts session claims from the request context.
func ClaimsFromContext(ctx context.Context) (*jwtinfra.Claims, bool) {
	c, ok := ctx.Value(ClaimsKey).(*jwtinfra.Claims)
	return c, ok
}
