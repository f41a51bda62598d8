package middleware

import (
	"net/http"
	"strings"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/auth"
	"github.com/Nexavor/NetworkFileManger-sub000/internal/httputil"
)

// Auth verifies the Bearer session token and attaches its claims to the
// request context. Health, login/register and public share routes pass
// through unauthenticated.
func Auth(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			claims, err := sessions.Verify(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			next.ServeHTTP(w, httputil.WithClaims(r, claims))
		})
	}
}

func isPublicPath(path string) bool {
	if path == "/health" {
		return true
	}
	if strings.HasPrefix(path, "/api/auth/") {
		return true
	}
	return strings.HasPrefix(path, "/public/")
}

// RequireAdmin rejects sessions without the admin flag. Must run inside Auth.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := httputil.GetClaims(r)
		if claims == nil || !claims.IsAdmin {
			httputil.RespondError(w, http.StatusForbidden, "admin access required")
			return
		}
		next(w, r)
	}
}
