package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ServiceAPI performs authentication-related business logic.
type ServiceAPI interface {
	Login(dto LoginDTO) (*LoginStatusDTO, error)
	ValidateCredential(tokenString string) (*Claims, error)
	GetUserWithPermissions(username string) (*User, error)
}

// RepositoryAPI resolves account records for authentication.
type RepositoryAPI interface {
	// FindByUsernameOrEmail resolves an identifier that may be either a
	// username or an email address, both matched case-insensitively.
	FindByUsernameOrEmail(identifier string) (*Account, error)
}

// AttemptsRepositoryAPI is the storage contract for the login-attempt guard.
type AttemptsRepositoryAPI interface {
	// IncrementLoginAttempts atomically increments and returns the new
	// count. It returns -1 with no error when the user does not exist.
	IncrementLoginAttempts(username string) (int, error)
	GetLoginAttempts(username string) (int, error)
	// LockAccount clears accountNonLocked. Reports whether this call
	// performed the transition; an already-locked account is left alone.
	LockAccount(username string) (bool, error)
	ResetLoginAttempts(username string) error
}

// PermissionRepositoryAPI feeds the permission aggregator.
type PermissionRepositoryAPI interface {
	// FindGrantedPermissions returns every (resource, action) pair granted
	// to the user through any assigned role. Duplicates across roles are
	// allowed; the aggregator removes them.
	FindGrantedPermissions(username string) ([]Permission, error)
}

// TokenGeneratorAPI encodes and verifies signed authentication credentials.
type TokenGeneratorAPI interface {
	Encode(username string, authorities []string, validity time.Duration) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Account mirrors the stored user security state used during login.
type Account struct {
	ID                    int64
	Username              string
	Email                 string
	PasswordHash          string
	Enabled               bool
	AccountNonExpired     bool
	AccountNonLocked      bool
	CredentialsNonExpired bool
}

// StatusValid reports whether the account may authenticate at all.
func (a *Account) StatusValid() bool {
	return a.Enabled && a.AccountNonExpired && a.AccountNonLocked && a.CredentialsNonExpired
}

// Permission is a (resource, action) pair granted through a role.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Key renders the authority string embedded in credentials.
func (p Permission) Key() string {
	return p.Resource + ":" + p.Action
}

// User is the authenticated principal placed on the request context.
type User struct {
	ID          int64    `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Permissions []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// Claims embeds identity and the aggregated authorities in the credential.
type Claims struct {
	Username    string   `json:"username"`
	Authorities []string `json:"authorities"`
	jwt.RegisteredClaims
}

// JWTCredentialIssuer signs HS256 credentials with a process-wide secret.
type JWTCredentialIssuer struct {
	Secret []byte
	now    func() time.Time
}

func NewJWTCredentialIssuer(secret string) *JWTCredentialIssuer {
	return &JWTCredentialIssuer{
		Secret: []byte(secret),
		now:    time.Now,
	}
}

// WithClock injects a custom now source for expiry tests.
func (j *JWTCredentialIssuer) WithClock(clock func() time.Time) *JWTCredentialIssuer {
	if clock != nil {
		j.now = clock
	}
	return j
}

// Encode produces a signed credential with subject, authorities, issued-at
// and expiration claims. A zero validity yields an immediately expired
// credential.
func (j *JWTCredentialIssuer) Encode(username string, authorities []string, validity time.Duration) (string, error) {
	now := j.now()

	claims := &Claims{
		Username:    username,
		Authorities: authorities,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiration of a credential.
func (j *JWTCredentialIssuer) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.Secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return j.now() }))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCredentialExpired
		}
		return nil, ErrInvalidCredential
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidCredential
}

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrCredentialExpired = errors.New("credential expired")
)

// VerifyPassword compares a plaintext password against a bcrypt digest.
// bcrypt's comparison is constant time for equal-cost digests.
func VerifyPassword(hashedPassword, password string) error {
	if hashedPassword == "" {
		// pending users carry no digest; burn comparable work so the
		// response does not distinguish them
		_ = subtle.ConstantTimeCompare([]byte(password), []byte(password))
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
