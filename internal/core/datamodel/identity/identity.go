package identity

import "time"

// User carries the account security state: status flags mirror the
// classic "non expired / non locked" booleans and loginAttempts drives
// the lockout guard. An empty PasswordHash means the user is still
// pending activation and must have Enabled = false.
type User struct {
	ID                    int64     `gorm:"primaryKey"`
	Username              string    `gorm:"column:username;uniqueIndex;not null"`
	Email                 string    `gorm:"column:email;uniqueIndex;not null"`
	Name                  string    `gorm:"column:name;not null"`
	PasswordHash          string    `gorm:"column:password_hash"`
	Enabled               bool      `gorm:"column:enabled;default:false"`
	AccountNonExpired     bool      `gorm:"column:account_non_expired;default:true"`
	AccountNonLocked      bool      `gorm:"column:account_non_locked;default:true"`
	CredentialsNonExpired bool      `gorm:"column:credentials_non_expired;default:true"`
	LoginAttempts         int       `gorm:"column:login_attempts;default:0"`
	CreatedAt             time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt             time.Time `gorm:"column:updated_at;default:now()"`
}

type Role struct {
	ID        int64     `gorm:"primaryKey"`
	Name      string    `gorm:"column:name;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

// ResourcePermission is a global catalog entry: a (resource, action) pair.
type ResourcePermission struct {
	ID        int64     `gorm:"primaryKey"`
	Resource  string    `gorm:"column:resource;not null;uniqueIndex:idx_resource_action"`
	Action    string    `gorm:"column:action;not null;uniqueIndex:idx_resource_action"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

// RolePermission associates a role with a catalog entry. The association
// only confers the permission while Granted is true.
type RolePermission struct {
	ID           int64     `gorm:"primaryKey"`
	RoleID       int64     `gorm:"column:role_id;not null;uniqueIndex:idx_role_permission"`
	PermissionID int64     `gorm:"column:permission_id;not null;uniqueIndex:idx_role_permission"`
	Granted      bool      `gorm:"column:granted;default:false"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
}

type UserRole struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;uniqueIndex:idx_user_role"`
	RoleID    int64     `gorm:"column:role_id;not null;uniqueIndex:idx_user_role"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
}

// UserToken is a single-use lifecycle token (activation, password reset).
// Consumed and Revoked only ever transition false to true; a token is
// usable while both are false and ExpirationDate is in the future.
type UserToken struct {
	ID             int64     `gorm:"primaryKey"`
	Token          string    `gorm:"column:token;uniqueIndex;not null"`
	Username       string    `gorm:"column:username;index;not null"`
	Scope          string    `gorm:"column:scope;not null"`
	CreationDate   time.Time `gorm:"column:creation_date;not null"`
	ExpirationDate time.Time `gorm:"column:expiration_date;not null"`
	Consumed       bool      `gorm:"column:consumed;default:false"`
	Revoked        bool      `gorm:"column:revoked;default:false"`
}
