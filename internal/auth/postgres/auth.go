package auth

import (
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
)

// Repository backs the login service, the attempt guard and the
// permission aggregator with one gorm handle.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) FindByUsernameOrEmail(identifier string) (*auth.Account, error) {
	var user identity.User
	err := r.db.
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", identifier, identifier).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}

	return &auth.Account{
		ID:                    user.ID,
		Username:              user.Username,
		Email:                 user.Email,
		PasswordHash:          user.PasswordHash,
		Enabled:               user.Enabled,
		AccountNonExpired:     user.AccountNonExpired,
		AccountNonLocked:      user.AccountNonLocked,
		CredentialsNonExpired: user.CredentialsNonExpired,
	}, nil
}

// IncrementLoginAttempts bumps the counter in a single statement so
// concurrent failed attempts cannot lose updates. Reports -1 when the
// username does not exist.
func (r *Repository) IncrementLoginAttempts(username string) (int, error) {
	var attempts int
	row := r.db.Raw(
		`UPDATE users SET login_attempts = login_attempts + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE username = ? RETURNING login_attempts`, username).Row()
	if err := row.Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return -1, nil
		}
		return 0, err
	}
	return attempts, nil
}

func (r *Repository) GetLoginAttempts(username string) (int, error) {
	var user identity.User
	err := r.db.Select("login_attempts").Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return -1, nil
		}
		return 0, err
	}
	return user.LoginAttempts, nil
}

func (r *Repository) LockAccount(username string) (bool, error) {
	res := r.db.Model(&identity.User{}).
		Where("username = ? AND account_non_locked = ?", username, true).
		Update("account_non_locked", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) ResetLoginAttempts(username string) error {
	return r.db.Model(&identity.User{}).
		Where("username = ?", username).
		Update("login_attempts", 0).Error
}

// FindGrantedPermissions walks user -> roles -> granted role permissions
// to the catalog. Rows may repeat when several roles grant the same pair.
func (r *Repository) FindGrantedPermissions(username string) ([]auth.Permission, error) {
	rows, err := r.db.Raw(
		`SELECT rp.resource, rp.action
		 FROM users u
		 JOIN user_roles ur ON ur.user_id = u.id
		 JOIN role_permissions p ON p.role_id = ur.role_id AND p.granted = true
		 JOIN resource_permissions rp ON rp.id = p.permission_id
		 WHERE u.username = ?`, username).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []auth.Permission
	for rows.Next() {
		var p auth.Permission
		if err := rows.Scan(&p.Resource, &p.Action); err != nil {
			return nil, err
		}
		permissions = append(permissions, p)
	}
	return permissions, rows.Err()
}
