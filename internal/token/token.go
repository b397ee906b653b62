package token

import (
	"time"

	identityDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/identity"
)

// Token scopes. Tokens issued for one workflow never satisfy validation
// for another.
const (
	ScopeActivation    = "activation"
	ScopePasswordReset = "password-reset"
)

type Token struct {
	ID             int64     `json:"id"`
	Token          string    `json:"token"`
	Username       string    `json:"username"`
	Scope          string    `json:"scope"`
	CreationDate   time.Time `json:"creation_date"`
	ExpirationDate time.Time `json:"expiration_date"`
	Consumed       bool      `json:"consumed"`
	Revoked        bool      `json:"revoked"`
}

// Usable reports whether the token can still satisfy validation at the
// given instant.
func (t *Token) Usable(now time.Time) bool {
	return !t.Consumed && !t.Revoked && now.Before(t.ExpirationDate)
}

// Finished reports whether the token can never be used again and may be
// deleted by the maintenance sweep.
func (t *Token) Finished(now time.Time) bool {
	return t.Consumed || t.Revoked || !now.Before(t.ExpirationDate)
}

func ToDataModel(t *Token) *identityDatamodel.UserToken {
	return &identityDatamodel.UserToken{
		ID:             t.ID,
		Token:          t.Token,
		Username:       t.Username,
		Scope:          t.Scope,
		CreationDate:   t.CreationDate,
		ExpirationDate: t.ExpirationDate,
		Consumed:       t.Consumed,
		Revoked:        t.Revoked,
	}
}

func FromDataModel(t *identityDatamodel.UserToken) *Token {
	return &Token{
		ID:             t.ID,
		Token:          t.Token,
		Username:       t.Username,
		Scope:          t.Scope,
		CreationDate:   t.CreationDate,
		ExpirationDate: t.ExpirationDate,
		Consumed:       t.Consumed,
		Revoked:        t.Revoked,
	}
}
