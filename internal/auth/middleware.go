package auth

import (
	"context"
	"net/http"
	"strings"

	"libradesk/internal/web"
)

type contextKey string

const principalKey contextKey = "principal"

// Middleware validates the session token from the Authorization header (or
// the legacy x-auth-token header) and attaches the principal to the context.
func Middleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := r.Header.Get("x-auth-token")
			if tokenStr == "" {
				header := r.Header.Get("Authorization")
				if !strings.HasPrefix(header, "Bearer ") {
					web.Msg(w, http.StatusUnauthorized, "No token, authorization denied")
					return
				}
				tokenStr = strings.TrimPrefix(header, "Bearer ")
			}

			claims, err := ValidateToken(secret, tokenStr)
			if err != nil {
				web.Msg(w, http.StatusUnauthorized, "Token is not valid")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, claims.Principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose principal is not an admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := FromContext(r.Context())
		if !ok {
			web.Msg(w, http.StatusUnauthorized, "No token, authorization denied")
			return
		}
		if !principal.IsAdmin {
			web.Msg(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// FromContext retrieves the authenticated principal from the context.
func FromContext(ctx context.Context) (Principal, bool) {
	principal, ok := ctx.Value(principalKey).(Principal)
	return principal, ok
}

// PrincipalOrSystem returns the authenticated principal, or the system
// principal when the request carries none.
func PrincipalOrSystem(ctx context.Context) Principal {
	if principal, ok := FromContext(ctx); ok {
		return principal
	}
	return SystemPrincipal
}
