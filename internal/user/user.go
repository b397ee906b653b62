package user

import (
	"time"

	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
)

// User is the administrative view of an account, including the status
// flags and role assignments an operator manages.
type User struct {
	ID                    int64     `json:"id"`
	Username              string    `json:"username"`
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Enabled               bool      `json:"enabled"`
	AccountNonExpired     bool      `json:"account_non_expired"`
	AccountNonLocked      bool      `json:"account_non_locked"`
	CredentialsNonExpired bool      `json:"credentials_non_expired"`
	LoginAttempts         int       `json:"login_attempts"`
	Roles                 []string  `json:"roles,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func FromDataModel(u *identity.User) *User {
	return &User{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		Name:                  u.Name,
		Enabled:               u.Enabled,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
		LoginAttempts:         u.LoginAttempts,
		CreatedAt:             u.CreatedAt,
		UpdatedAt:             u.UpdatedAt,
	}
}

func FromDataModelWithRoles(u *identity.User, roles []string) *User {
	domainUser := FromDataModel(u)
	domainUser.Roles = roles
	return domainUser
}
