package postgres

import (
	"errors"

	"gorm.io/gorm"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/account"
	"github.com/frahmantamala/user-management/internal/core/datamodel/identity"
)

type AccountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func toDomain(u *identity.User) *account.User {
	return &account.User{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		Name:                  u.Name,
		Enabled:               u.Enabled,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
	}
}

func (r *AccountRepository) GetByUsername(username string) (*account.User, error) {
	var user identity.User
	err := r.db.Where("LOWER(username) = LOWER(?)", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&user), nil
}

func (r *AccountRepository) GetByEmail(email string) (*account.User, error) {
	var user identity.User
	err := r.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return toDomain(&user), nil
}

func (r *AccountRepository) CreatePending(u *account.User) error {
	user := identity.User{
		Username:              u.Username,
		Email:                 u.Email,
		Name:                  u.Name,
		Enabled:               false,
		AccountNonExpired:     u.AccountNonExpired,
		AccountNonLocked:      u.AccountNonLocked,
		CredentialsNonExpired: u.CredentialsNonExpired,
	}
	if err := r.db.Create(&user).Error; err != nil {
		return err
	}
	u.ID = user.ID
	return nil
}

// Activate commits the enabled flag, the password digest and the token
// consumption together. The guarded token update makes the whole
// transaction fail for a token that was already redeemed.
func (r *AccountRepository) Activate(username, passwordHash, tokenString string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, tokenString); err != nil {
			return err
		}

		res := tx.Model(&identity.User{}).
			Where("username = ?", username).
			Updates(map[string]interface{}{
				"password_hash": passwordHash,
				"enabled":       true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
}

// ResetPassword swaps the digest, clears the failed-attempt counter and
// consumes the reset token in one transaction. AccountNonLocked is left
// untouched.
func (r *AccountRepository) ResetPassword(username, passwordHash, tokenString string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := consumeToken(tx, tokenString); err != nil {
			return err
		}

		res := tx.Model(&identity.User{}).
			Where("username = ?", username).
			Updates(map[string]interface{}{
				"password_hash":  passwordHash,
				"login_attempts": 0,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
}

func consumeToken(tx *gorm.DB, tokenString string) error {
	res := tx.Model(&identity.UserToken{}).
		Where("token = ? AND consumed = ?", tokenString, false).
		Update("consumed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&identity.UserToken{}).
			Where("token = ?", tokenString).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return internal.ErrTokenNotFound
		}
		return internal.ErrTokenConsumed
	}
	return nil
}
