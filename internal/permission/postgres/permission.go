package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
	"github.com/frahmantamala/user-management/internal/permission"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) *PermissionRepository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) Create(perm *permission.Permission) error {
	record := identity.ResourcePermission{Resource: perm.Resource, Action: perm.Action}
	if err := r.db.Create(&record).Error; err != nil {
		return err
	}
	perm.ID = record.ID
	perm.CreatedAt = record.CreatedAt
	return nil
}

func (r *PermissionRepository) Get(resource, action string) (*permission.Permission, error) {
	var record identity.ResourcePermission
	err := r.db.Where("resource = ? AND action = ?", resource, action).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrPermissionNotFound
		}
		return nil, err
	}
	return &permission.Permission{
		ID:        record.ID,
		Resource:  record.Resource,
		Action:    record.Action,
		CreatedAt: record.CreatedAt,
	}, nil
}

func (r *PermissionRepository) List() ([]*permission.Permission, error) {
	var records []identity.ResourcePermission
	if err := r.db.Order("resource, action").Find(&records).Error; err != nil {
		return nil, err
	}

	perms := make([]*permission.Permission, 0, len(records))
	for i := range records {
		perms = append(perms, &permission.Permission{
			ID:        records[i].ID,
			Resource:  records[i].Resource,
			Action:    records[i].Action,
			CreatedAt: records[i].CreatedAt,
		})
	}
	return perms, nil
}

func (r *PermissionRepository) Delete(resource, action string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var record identity.ResourcePermission
		if err := tx.Where("resource = ? AND action = ?", resource, action).First(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return internal.ErrPermissionNotFound
			}
			return err
		}

		if err := tx.Where("permission_id = ?", record.ID).Delete(&identity.RolePermission{}).Error; err != nil {
			return err
		}

		return tx.Delete(&record).Error
	})
}
