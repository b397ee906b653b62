package user

import (
	errors "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
)

// CreateUserDTO provisions an account directly, bypassing the invitation
// flow: the password is set immediately and the user starts enabled.
type CreateUserDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (d CreateUserDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("username", d.Username).Required().MinLength(3).MaxLength(60).UsernameFormat()
	validator.Field("email", d.Email).Required().MaxLength(254).EmailFormat()
	validator.Field("name", d.Name).Required().MaxLength(128)
	if err := validator.Validate(); err != nil {
		return err
	}
	return validation.ValidatePassword(d.Password)
}

type UpdateUserDTO struct {
	Email *string `json:"email,omitempty"`
	Name  *string `json:"name,omitempty"`
}

func (d UpdateUserDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	if d.Email != nil {
		validator.Field("email", *d.Email).Required().MaxLength(254).EmailFormat()
	}
	if d.Name != nil {
		validator.Field("name", *d.Name).Required().MaxLength(128)
	}
	return validator.Validate()
}

type AssignRoleDTO struct {
	Role string `json:"role"`
}

func (d AssignRoleDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("role", d.Role).Required().MaxLength(60)
	return validator.Validate()
}

// UserListDTO wraps a page of users with the total for pagination.
type UserListDTO struct {
	Users  []*User `json:"users"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
