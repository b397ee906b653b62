package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
	"github.com/frahmantamala/user-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User, passwordHash string) error {
	record := identity.User{
		Username:              u.Username,
		Email:                 u.Email,
		Name:                  u.Name,
		PasswordHash:          passwordHash,
		Enabled:               u.Enabled,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
	}
	if err := r.db.Create(&record).Error; err != nil {
		return err
	}
	u.ID = record.ID
	u.CreatedAt = record.CreatedAt
	u.UpdatedAt = record.UpdatedAt
	return nil
}

func (r *UserRepository) GetByUsername(username string) (*user.User, error) {
	var record identity.User
	err := r.db.Where("LOWER(username) = LOWER(?)", username).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&record), nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var record identity.User
	err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&record), nil
}

func (r *UserRepository) List(limit, offset int) ([]*user.User, int64, error) {
	var total int64
	if err := r.db.Model(&identity.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []identity.User
	err := r.db.Order("username").Limit(limit).Offset(offset).Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	users := make([]*user.User, 0, len(records))
	for i := range records {
		users = append(users, user.FromDataModel(&records[i]))
	}
	return users, total, nil
}

func (r *UserRepository) Update(username string, email, name *string) error {
	updates := map[string]interface{}{}
	if email != nil {
		updates["email"] = *email
	}
	if name != nil {
		updates["name"] = *name
	}
	if len(updates) == 0 {
		return nil
	}

	res := r.db.Model(&identity.User{}).Where("username = ?", username).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

// Delete removes the account and its role assignments in one transaction.
// Roles and the permission catalog are untouched.
func (r *UserRepository) Delete(username string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record identity.User
		if err := tx.Where("username = ?", username).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrUserNotFound
			}
			return err
		}

		if err := tx.Where("user_id = ?", record.ID).Delete(&identity.UserRole{}).Error; err != nil {
			return err
		}

		return tx.Delete(&record).Error
	})
}

func (r *UserRepository) SetLocked(username string, locked bool) error {
	updates := map[string]interface{}{"account_non_locked": !locked}
	if !locked {
		updates["login_attempts"] = 0
	}

	res := r.db.Model(&identity.User{}).Where("username = ?", username).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) AssignRole(username, roleName string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record identity.User
		if err := tx.Where("username = ?", username).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrUserNotFound
			}
			return err
		}

		var role identity.Role
		if err := tx.Where("name = ?", roleName).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRoleNotFound
			}
			return err
		}

		assignment := identity.UserRole{UserID: record.ID, RoleID: role.ID}
		return tx.Where(assignment).FirstOrCreate(&assignment).Error
	})
}

func (r *UserRepository) RemoveRole(username, roleName string) error {
	return r.db.Exec(
		`DELETE FROM user_roles
		 WHERE user_id = (SELECT id FROM users WHERE username = ?)
		   AND role_id = (SELECT id FROM roles WHERE name = ?)`,
		username, roleName).Error
}

func (r *UserRepository) GetRoles(username string) ([]string, error) {
	rows, err := r.db.Raw(
		`SELECT r.name
		 FROM roles r
		 JOIN user_roles ur ON ur.role_id = r.id
		 JOIN users u ON u.id = ur.user_id
		 WHERE u.username = ?
		 ORDER BY r.name`, username).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}
