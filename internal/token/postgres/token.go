package postgres

import (
	"time"

	"github.com/frahmantamala/user-management/internal"
	identityDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/identity"
	"github.com/frahmantamala/user-management/internal/token"
	"gorm.io/gorm"
)

// TokenRepository implements the token.RepositoryAPI interface using GORM
type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) token.RepositoryAPI {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(t *token.Token) error {
	model := token.ToDataModel(t)
	if err := r.db.Create(model).Error; err != nil {
		return err
	}
	t.ID = model.ID
	return nil
}

func (r *TokenRepository) GetByToken(tokenString string) (*token.Token, error) {
	var model identityDatamodel.UserToken
	err := r.db.Where("token = ?", tokenString).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, internal.ErrTokenNotFound
		}
		return nil, err
	}
	return token.FromDataModel(&model), nil
}

// MarkConsumed performs a guarded update so that two concurrent callers
// cannot both observe the false-to-true transition.
func (r *TokenRepository) MarkConsumed(tokenString string) (bool, error) {
	res := r.db.Model(&identityDatamodel.UserToken{}).
		Where("token = ? AND consumed = ?", tokenString, false).
		Update("consumed", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	// No transition: distinguish a missing token from an already-consumed one.
	var count int64
	if err := r.db.Model(&identityDatamodel.UserToken{}).
		Where("token = ?", tokenString).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, internal.ErrTokenNotFound
	}
	return false, nil
}

func (r *TokenRepository) MarkRevoked(tokenString string) (bool, error) {
	res := r.db.Model(&identityDatamodel.UserToken{}).
		Where("token = ? AND revoked = ?", tokenString, false).
		Update("revoked", true)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.Model(&identityDatamodel.UserToken{}).
		Where("token = ?", tokenString).
		Count(&count).Error; err != nil {
		return false, err
	}
	if count == 0 {
		return false, internal.ErrTokenNotFound
	}
	return false, nil
}

// DeleteFinished removes consumed, revoked and expired tokens. Each row
// is matched on immutable-once-set fields, so a sweep running next to an
// in-flight validation never changes that validation's outcome.
func (r *TokenRepository) DeleteFinished(now time.Time) (int64, error) {
	res := r.db.Where("consumed = ? OR revoked = ? OR expiration_date <= ?", true, true, now).
		Delete(&identityDatamodel.UserToken{})
	return res.RowsAffected, res.Error
}
