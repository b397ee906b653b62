package role

import "time"

// Role groups granted resource permissions and is assigned to users.
type Role struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository is the data access contract for role administration.
type Repository interface {
	Create(role *Role) error
	GetByName(name string) (*Role, error)
	List() ([]*Role, error)
	// Delete removes the role together with its user assignments and
	// permission associations. Users and the catalog survive.
	Delete(name string) error
	// Grant associates the catalog entry with the role, setting granted.
	// An existing revoked association is flipped back on.
	Grant(roleName, resource, action string) error
	// Revoke flips granted off but keeps the association row.
	Revoke(roleName, resource, action string) error
	GetGrantedPermissions(roleName string) ([]string, error)
}
