package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/taskboard/backend/internal/errors"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity is the verified subject of a bearer token.
type Identity struct {
	UserID int64
}

// Middleware gates a handler behind token verification. A missing
// credential is 401; a credential that fails verification is 403.
func Middleware(authService *Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := apperrors.GetRequestID(r.Context())

			token, ok := bearerToken(r)
			if !ok {
				apperrors.WriteError(w, requestID, apperrors.Unauthorized("authentication required"))
				return
			}

			claims, err := authService.VerifyToken(token)
			if err != nil {
				apperrors.WriteError(w, requestID, apperrors.InvalidToken("invalid or expired token"))
				return
			}

			ctx := WithIdentity(r.Context(), &Identity{UserID: claims.UserID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}

	return parts[1], true
}

// WithIdentity attaches a verified identity to the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFromContext returns the verified identity, or nil when the
// request did not pass the middleware.
func IdentityFromContext(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok {
		return nil
	}
	return id
}
