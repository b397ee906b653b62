package role

import (
	errors "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
)

type CreateRoleDTO struct {
	Name string `json:"name"`
}

func (d CreateRoleDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("name", d.Name).Required().MinLength(2).MaxLength(60)
	return validator.Validate()
}

// PermissionRefDTO names a catalog entry in grant and revoke requests.
type PermissionRefDTO struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (d PermissionRefDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("resource", d.Resource).Required().MaxLength(60)
	validator.Field("action", d.Action).Required().MaxLength(60)
	return validator.Validate()
}
