package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/stowage/service/internal/auth"
	"github.com/stowage/service/internal/response"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

// SubjectKey is the context key for the authenticated caller.
const SubjectKey contextKey = "subject"

// APIKeyHeader carries the shared API key.
const APIKeyHeader = "X-API-Key"

// RequireAPIKey returns middleware that admits requests carrying the API key
// or a valid bearer token. Missing credentials are rejected with 403, wrong
// ones with 401.
func RequireAPIKey(svc *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := svc.Authenticate(r.Header.Get(APIKeyHeader), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, auth.ErrMissingCredentials) {
					response.Forbidden(w, "api key required")
					return
				}
				response.Unauthorized(w, "invalid api key or token")
				return
			}

			ctx := context.WithValue(r.Context(), SubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated caller stored by RequireAPIKey.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(SubjectKey).(string)
	return s
}
