package middleware

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/user-management/internal/auth"
)

// RequirePermissions guards a route behind permission keys. The user needs
// any one of them; the admin authority always passes.
func RequirePermissions(permissions ...string) func(http.Handler) http.Handler {
	required := append([]string{auth.PermAdmin}, permissions...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.UserFromContext(r.Context())
			if !ok || user == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !user.HasAnyPermission(required) {
				slog.Warn("access denied",
					"username", user.Username,
					"required_permissions", permissions,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
