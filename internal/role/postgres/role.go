package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
	"github.com/frahmantamala/user-management/internal/role"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) Create(domainRole *role.Role) error {
	record := identity.Role{Name: domainRole.Name}
	if err := r.db.Create(&record).Error; err != nil {
		return err
	}
	domainRole.ID = record.ID
	domainRole.CreatedAt = record.CreatedAt
	return nil
}

func (r *RoleRepository) GetByName(name string) (*role.Role, error) {
	var record identity.Role
	err := r.db.Where("name = ?", name).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrRoleNotFound
		}
		return nil, err
	}
	return &role.Role{ID: record.ID, Name: record.Name, CreatedAt: record.CreatedAt}, nil
}

func (r *RoleRepository) List() ([]*role.Role, error) {
	var records []identity.Role
	if err := r.db.Order("name").Find(&records).Error; err != nil {
		return nil, err
	}

	roles := make([]*role.Role, 0, len(records))
	for i := range records {
		roles = append(roles, &role.Role{
			ID:        records[i].ID,
			Name:      records[i].Name,
			CreatedAt: records[i].CreatedAt,
		})
	}
	return roles, nil
}

func (r *RoleRepository) Delete(name string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record identity.Role
		if err := tx.Where("name = ?", name).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRoleNotFound
			}
			return err
		}

		if err := tx.Where("role_id = ?", record.ID).Delete(&identity.UserRole{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", record.ID).Delete(&identity.RolePermission{}).Error; err != nil {
			return err
		}

		return tx.Delete(&record).Error
	})
}

func (r *RoleRepository) Grant(roleName, resource, action string) error {
	return r.setGranted(roleName, resource, action, true)
}

func (r *RoleRepository) Revoke(roleName, resource, action string) error {
	return r.setGranted(roleName, resource, action, false)
}

func (r *RoleRepository) setGranted(roleName, resource, action string, granted bool) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record identity.Role
		if err := tx.Where("name = ?", roleName).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrRoleNotFound
			}
			return err
		}

		var perm identity.ResourcePermission
		err := tx.Where("resource = ? AND action = ?", resource, action).First(&perm).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrPermissionNotFound
			}
			return err
		}

		assoc := identity.RolePermission{RoleID: record.ID, PermissionID: perm.ID}
		if err := tx.Where(identity.RolePermission{RoleID: record.ID, PermissionID: perm.ID}).
			FirstOrCreate(&assoc).Error; err != nil {
			return err
		}

		if assoc.Granted == granted {
			return nil
		}
		return tx.Model(&assoc).Update("granted", granted).Error
	})
}

func (r *RoleRepository) GetGrantedPermissions(roleName string) ([]string, error) {
	rows, err := r.db.Raw(
		`SELECT rp.resource || ':' || rp.action
		 FROM roles r
		 JOIN role_permissions p ON p.role_id = r.id AND p.granted = true
		 JOIN resource_permissions rp ON rp.id = p.permission_id
		 WHERE r.name = ?
		 ORDER BY rp.resource, rp.action`, roleName).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		permissions = append(permissions, key)
	}
	return permissions, rows.Err()
}
