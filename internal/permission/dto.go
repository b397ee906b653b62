package permission

import (
	errors "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
)

type CreatePermissionDTO struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

func (d CreatePermissionDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("resource", d.Resource).Required().MaxLength(60)
	validator.Field("action", d.Action).Required().MaxLength(60)
	return validator.Validate()
}
