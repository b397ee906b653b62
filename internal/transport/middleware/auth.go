package middleware

import (
	"net/http"

	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/pkg/logger"
)

// UserContext enriches the request-scoped logger with the authenticated
// principal. It must run after the JWT middleware has populated the
// context; anonymous requests pass through untouched.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, ok := auth.UserFromContext(r.Context()); ok && user != nil {
			ctx := logger.With(r.Context(), "username", user.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		next.ServeHTTP(w, r)
	})
}
