package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/Hexix23/webhook-catcher-workers/common/httputil"
)

// APIKeyHeader is accepted as an alternative to the Authorization header.
const APIKeyHeader = "X-API-Key"

// ExtractToken returns the credential from an Authorization header of the
// form "Bearer <token>" (scheme is case-insensitive).
func ExtractToken(authHeader string) string {
	parts := strings.SplitN(strings.TrimSpace(authHeader), " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireToken rejects requests whose bearer token or X-API-Key does not
// match token. An empty token disables the check.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		expected := []byte(token)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := ExtractToken(r.Header.Get("Authorization"))
			if presented == "" {
				presented = strings.TrimSpace(r.Header.Get(APIKeyHeader))
			}
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
				httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized", "missing or invalid API token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
