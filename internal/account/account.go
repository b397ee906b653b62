package account

// User is the lifecycle view of an account: identity fields plus the
// status flags that decide whether an invite, activation or reset applies.
type User struct {
	ID                    int64  `json:"id"`
	Username              string `json:"username"`
	Email                 string `json:"email"`
	Name                  string `json:"name"`
	Enabled               bool   `json:"enabled"`
	AccountNonExpired     bool   `json:"-"`
	AccountNonLocked      bool   `json:"-"`
	CredentialsNonExpired bool   `json:"-"`
}

// Pending reports whether the user was invited but has not activated yet.
func (u *User) Pending() bool {
	return !u.Enabled
}

// RepositoryAPI is the storage contract for the lifecycle service.
type RepositoryAPI interface {
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	CreatePending(user *User) error
	// Activate sets the password digest and enables the user while
	// consuming the activation token in the same transaction.
	Activate(username, passwordHash, tokenString string) error
	// ResetPassword swaps the digest, zeroes the failed-attempt counter
	// and consumes the reset token in the same transaction.
	ResetPassword(username, passwordHash, tokenString string) error
}

// TokenAPI is the slice of the token service the lifecycle flows need.
type TokenAPI interface {
	Create(username, scope string) (string, error)
	ValidateScoped(tokenString, scope string) error
	GetUsername(tokenString string) (string, error)
}

// MailerAPI dispatches lifecycle emails. Implementations never block and
// never fail the calling flow.
type MailerAPI interface {
	SendActivationMail(recipient, name, tokenString string)
	SendPasswordResetMail(recipient, name, tokenString string)
}
