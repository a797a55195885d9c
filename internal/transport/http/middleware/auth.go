package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pulsechat/internal/httputil"
	"pulsechat/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// UserKey is the context key for the authenticated, fully resolved user
	UserKey contextKey = "user"
)

// UserResolver resolves a user by lookup key. Satisfied by service.UserService.
type UserResolver interface {
	Resolve(ctx context.Context, key model.UserKey) (*model.User, error)
}

// AuthMiddleware resolves the bearer token from the Authorization header
// into a complete user record and stores it on the request context. The
// token is an opaque identifier matched against storage, not a signed
// token, so the only validation is the lookup itself. A failed lookup is
// reported identically to a missing header.
func AuthMiddleware(resolver UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var tokenString string

			authHeader := r.Header.Get("Authorization")
			if authHeader != "" {
				// Accept both "Bearer <token>" and a bare token
				parts := strings.SplitN(authHeader, " ", 2)
				if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
					tokenString = parts[1]
				} else {
					tokenString = authHeader
				}
			}

			if tokenString == "" {
				httputil.WriteUnauthorized(w, "Missing authentication token")
				return
			}

			token, err := uuid.Parse(tokenString)
			if err != nil {
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			user, err := resolver.Resolve(r.Context(), model.KeyFromToken(token))
			if err != nil {
				if !errors.Is(err, model.ErrUserNotFound) {
					log.Printf("[AuthMiddleware] Resolve failed: %v", err)
					httputil.WriteInternalError(w, "Failed to authenticate")
					return
				}
				httputil.WriteUnauthorized(w, "Invalid authentication token")
				return
			}

			ctx := context.WithValue(r.Context(), UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the resolved user from the request context.
// Returns the user and true if found, or nil and false if not found.
func GetUserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(UserKey).(*model.User)
	return user, ok
}
