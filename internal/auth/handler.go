package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/user-management/internal/transport"
	"github.com/frahmantamala/user-management/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	checker PermissionChecker
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		checker:     NewPermissionChecker(),
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := h.Service.Login(dto)
	if err != nil {
		if _, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.Logger.Error("login failed", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !status.Logged {
		// one generic message regardless of the reason the attempt failed
		h.WriteError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	h.WriteJSON(w, http.StatusOK, status)
}

// AuthMiddleware validates the bearer credential and loads the principal
// with its current permission set into the request context. Permissions
// inside the credential are ignored here so revocations apply immediately.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := h.Service.ValidateCredential(token)
		if err != nil {
			h.Logger.Warn("credential validation failed", "error", err)
			h.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		user, err := h.Service.GetUserWithPermissions(claims.Username)
		if err != nil {
			h.Logger.Error("auth middleware: failed to load user", "username", claims.Username, "error", err)
			h.WriteError(w, http.StatusUnauthorized, "user not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequirePermission guards an endpoint behind a single permission key.
func (h *Handler) RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}

			if !h.checker.HasAnyPermission(user.Permissions, []string{permission, PermAdmin}) {
				h.Logger.Warn("permission denied",
					"username", user.Username,
					"required", permission)
				h.WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
