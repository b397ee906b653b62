package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/user-management/internal/account"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/permission"
	"github.com/frahmantamala/user-management/internal/role"
	"github.com/frahmantamala/user-management/internal/transport/middleware"
	"github.com/frahmantamala/user-management/internal/transport/swagger"
	"github.com/frahmantamala/user-management/internal/user"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth       *auth.Handler
	Account    *account.Handler
	User       *user.Handler
	Role       *role.Handler
	Permission *permission.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
		})

		// Public account lifecycle routes: the caller proves identity
		// with a mailed single-use token, not a credential
		r.Route("/account", func(ar chi.Router) {
			ar.Post("/activate", h.Account.ActivateUser)
			ar.Get("/token/{token}", h.Account.ValidateToken)
			ar.Post("/password-reset", h.Account.RequestPasswordReset)
			ar.Post("/password-reset/confirm", h.Account.ResetPassword)
		})

		// Protected routes that require authentication
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			pr.Get("/users/me", h.User.GetCurrentUser)

			pr.Group(func(ir chi.Router) {
				ir.Use(middleware.RequirePermissions(auth.PermManageUsers))
				ir.Post("/account/invite", h.Account.InviteUser)
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Use(middleware.RequirePermissions(auth.PermManageUsers))
				ur.Post("/", h.User.CreateUser)
				ur.Get("/", h.User.ListUsers)
				ur.Get("/{username}", h.User.GetUser)
				ur.Patch("/{username}", h.User.UpdateUser)
				ur.Delete("/{username}", h.User.DeleteUser)
				ur.Post("/{username}/lock", h.User.LockUser)
				ur.Post("/{username}/unlock", h.User.UnlockUser)
				ur.Post("/{username}/roles", h.User.AssignRole)
				ur.Delete("/{username}/roles/{role}", h.User.RemoveRole)
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Use(middleware.RequirePermissions(auth.PermManageRoles))
				rr.Post("/", h.Role.CreateRole)
				rr.Get("/", h.Role.ListRoles)
				rr.Get("/{name}", h.Role.GetRole)
				rr.Delete("/{name}", h.Role.DeleteRole)
				rr.Post("/{name}/permissions", h.Role.GrantPermission)
				rr.Delete("/{name}/permissions", h.Role.RevokePermission)
			})

			pr.Route("/permissions", func(pm chi.Router) {
				pm.Use(middleware.RequirePermissions(auth.PermManagePermissions))
				pm.Post("/", h.Permission.CreatePermission)
				pm.Get("/", h.Permission.ListPermissions)
				pm.Delete("/{resource}/{action}", h.Permission.DeletePermission)
			})
		})
	})
}
