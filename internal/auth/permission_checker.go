package auth

const (
	PermManageUsers       = "users:manage"
	PermManageRoles       = "roles:manage"
	PermManagePermissions = "permissions:manage"
	PermAdmin             = "admin:all"
)

type PermissionChecker interface {
	CanManageUsers(userPermissions []string) bool
	CanManageRoles(userPermissions []string) bool
	CanManagePermissions(userPermissions []string) bool
	HasPermission(userPermissions []string, permission string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(userPermissions []string, permission string) bool {
	return c.HasAnyPermission(userPermissions, []string{permission})
}

func (c *DefaultPermissionChecker) CanManageUsers(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageUsers, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManageRoles(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManageRoles, PermAdmin})
}

func (c *DefaultPermissionChecker) CanManagePermissions(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermManagePermissions, PermAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermAdmin})
}
