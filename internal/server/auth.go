package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/me/modelrun/pkg/model"
)

const ctxKeyOwnerID ctxKey = "owner_id"

// OwnerFromContext extracts the authenticated owner identity from request context.
func OwnerFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(ctxKeyOwnerID).(string); ok {
		return id
	}
	return ""
}

// identityMiddleware resolves the caller's identity and stores it in context.
//
// The identity provider is external to this service: by the time a request
// carries a bearer token, the token has already been minted upstream and its
// subject is the opaque owner id. The middleware trusts it verbatim; requests
// without one are rejected with 401.
func identityMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			owner := extractOwner(r)
			if owner == "" {
				respondError(w, reqID, http.StatusUnauthorized, &model.APIError{
					Code:    model.ErrUnauthorized,
					Message: "authentication required",
				})
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyOwnerID, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractOwner reads the caller identity from the Authorization header
// (Bearer token) or the X-User-ID header. Returns "" when absent.
func extractOwner(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != "" {
			return token
		}
	}
	return strings.TrimSpace(r.Header.Get("X-User-ID"))
}
