package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Auth enforces the shared-secret bearer token. No credential at all is a
// distinct outcome (403) from a wrong one (401).
func Auth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				writeError(w, http.StatusForbidden, "AuthError", "Not authenticated")
				return
			}

			scheme, token, found := strings.Cut(header, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
				writeError(w, http.StatusForbidden, "AuthError", "Invalid authentication credentials")
				return
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				writeError(w, http.StatusUnauthorized, "AuthError", "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
