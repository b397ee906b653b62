package token

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/frahmantamala/user-management/internal"
)

// RepositoryAPI is the storage contract for lifecycle tokens.
type RepositoryAPI interface {
	Create(t *Token) error
	GetByToken(tokenString string) (*Token, error)
	// MarkConsumed flips consumed from false to true. It reports whether
	// this call performed the transition; false means another caller won
	// the race or the token was consumed before.
	MarkConsumed(tokenString string) (bool, error)
	MarkRevoked(tokenString string) (bool, error)
	DeleteFinished(now time.Time) (int64, error)
}

// Service issues, validates and consumes single-use scoped tokens.
type Service struct {
	repo     RepositoryAPI
	validity time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo RepositoryAPI, validity time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		validity: validity,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock injects a custom now source, used by expiration tests.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Create persists a fresh token for the user and scope. Multiple
// outstanding tokens for the same user and scope are permitted.
func (s *Service) Create(username, scope string) (string, error) {
	opaque, err := generateOpaqueToken()
	if err != nil {
		return "", internal.NewInternalError("failed to generate token", err)
	}

	now := s.now()
	t := &Token{
		Token:          opaque,
		Username:       username,
		Scope:          scope,
		CreationDate:   now,
		ExpirationDate: now.Add(s.validity),
	}

	if err := s.repo.Create(t); err != nil {
		s.logger.Error("failed to persist token", "username", username, "scope", scope, "error", err)
		return "", internal.NewInternalError("failed to persist token", err)
	}

	s.logger.Info("token created", "username", username, "scope", scope, "expires_at", t.ExpirationDate)
	return opaque, nil
}

// Validate checks the token in a fixed order: existence, consumed,
// revoked, expiration. The first applicable failure wins, so a consumed
// and expired token reports consumed.
func (s *Service) Validate(tokenString string) error {
	t, err := s.repo.GetByToken(tokenString)
	if err != nil {
		return err
	}
	return s.check(t)
}

// ValidateScoped behaves like Validate but additionally requires the
// token to belong to the given scope. A token issued for a different
// workflow is reported as not found.
func (s *Service) ValidateScoped(tokenString, scope string) error {
	t, err := s.repo.GetByToken(tokenString)
	if err != nil {
		return err
	}
	if t.Scope != scope {
		return internal.ErrTokenNotFound
	}
	return s.check(t)
}

func (s *Service) check(t *Token) error {
	if t.Consumed {
		return internal.ErrTokenConsumed
	}
	if t.Revoked {
		return internal.ErrTokenRevoked
	}
	if !s.now().Before(t.ExpirationDate) {
		return internal.ErrTokenExpired
	}
	return nil
}

// GetUsername resolves the owning user without enforcing validity, so
// callers can build diagnostic status responses for invalid tokens.
func (s *Service) GetUsername(tokenString string) (string, error) {
	t, err := s.repo.GetByToken(tokenString)
	if err != nil {
		return "", err
	}
	return t.Username, nil
}

// Consume marks the token as used. At most one caller performs the
// false-to-true transition; later callers get a consumed error and the
// stored state stays intact.
func (s *Service) Consume(tokenString string) error {
	transitioned, err := s.repo.MarkConsumed(tokenString)
	if err != nil {
		return err
	}
	if !transitioned {
		return internal.ErrTokenConsumed
	}
	return nil
}

// Revoke invalidates an outstanding token without consuming it.
func (s *Service) Revoke(tokenString string) error {
	transitioned, err := s.repo.MarkRevoked(tokenString)
	if err != nil {
		return err
	}
	if !transitioned {
		return internal.ErrTokenRevoked
	}
	return nil
}

// CleanUp hard-deletes every finished token: consumed, revoked or past
// expiration. Deletion is storage hygiene only; validation outcomes do
// not depend on it.
func (s *Service) CleanUp() (int64, error) {
	deleted, err := s.repo.DeleteFinished(s.now())
	if err != nil {
		s.logger.Error("token cleanup failed", "error", err)
		return 0, internal.NewInternalError("token cleanup failed", err)
	}
	if deleted > 0 {
		s.logger.Info("token cleanup finished", "deleted", deleted)
	}
	return deleted, nil
}

func generateOpaqueToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
