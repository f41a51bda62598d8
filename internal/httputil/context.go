package httputil

import (
	"context"
	"net/http"

	"github.com/Nexavor/NetworkFileManger-sub000/internal/auth"
)

// Context key type to avoid collisions
type contextKey string

const claimsKey contextKey = "sessionClaims"

// WithClaims attaches verified session claims to the request context.
func WithClaims(r *http.Request, claims *auth.SessionClaims) *http.Request {
	ctx := context.WithValue(r.Context(), claimsKey, claims)
	return r.WithContext(ctx)
}

// GetClaims retrieves the session claims, or nil on unauthenticated routes.
func GetClaims(r *http.Request) *auth.SessionClaims {
	claims, _ := r.Context().Value(claimsKey).(*auth.SessionClaims)
	return claims
}
