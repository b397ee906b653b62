package account

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/user-management/internal/transport"
	"github.com/frahmantamala/user-management/pkg/logger"
)

type ServiceAPI interface {
	InviteUser(dto InviteUserDTO) (*User, error)
	ActivateUser(dto ActivateUserDTO) (*User, error)
	ValidateToken(tokenString string) *TokenStatusDTO
	RequestPasswordReset(dto PasswordResetRequestDTO) error
	ResetPassword(dto PasswordResetConfirmDTO) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) InviteUser(w http.ResponseWriter, r *http.Request) {
	var dto InviteUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.InviteUser(dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	var dto ActivateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Service.ActivateUser(dto)
	if err != nil {
		h.WriteAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	tokenString := chi.URLParam(r, "token")
	if tokenString == "" {
		h.WriteError(w, http.StatusBadRequest, "missing token")
		return
	}

	h.WriteJSON(w, http.StatusOK, h.Service.ValidateToken(tokenString))
}

// RequestPasswordReset always answers 202: the response must not reveal
// whether the address belongs to an account.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.RequestPasswordReset(dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var dto PasswordResetConfirmDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Service.ResetPassword(dto); err != nil {
		h.WriteAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
