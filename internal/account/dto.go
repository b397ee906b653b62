package account

import (
	errors "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
)

type InviteUserDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

func (d InviteUserDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("username", d.Username).Required().MinLength(3).MaxLength(60).UsernameFormat()
	validator.Field("email", d.Email).Required().MaxLength(254).EmailFormat()
	validator.Field("name", d.Name).Required().MaxLength(128)
	return validator.Validate()
}

type ActivateUserDTO struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (d ActivateUserDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("token", d.Token).Required()
	validator.Field("password", d.Password).Required()
	return validator.Validate()
}

// TokenStatusDTO is returned by the public token probe used by activation
// pages. Username is resolved on a best-effort basis even for stale tokens.
type TokenStatusDTO struct {
	Username string `json:"username,omitempty"`
	Valid    bool   `json:"valid"`
}

type PasswordResetRequestDTO struct {
	Email string `json:"email"`
}

func (d PasswordResetRequestDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("email", d.Email).Required().MaxLength(254).EmailFormat()
	return validator.Validate()
}

type PasswordResetConfirmDTO struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (d PasswordResetConfirmDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("token", d.Token).Required()
	validator.Field("password", d.Password).Required()
	return validator.Validate()
}
