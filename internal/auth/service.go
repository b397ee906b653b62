package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/core/events"
)

// EventPublisher is the audit sink for login events.
type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Service orchestrates credential validation against the login-attempt
// guard, the permission aggregator and the credential issuer.
type Service struct {
	repo               RepositoryAPI
	guard              *LoginAttemptGuard
	aggregator         *PermissionAggregator
	issuer             TokenGeneratorAPI
	publisher          EventPublisher
	credentialValidity time.Duration
	logger             *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	guard *LoginAttemptGuard,
	aggregator *PermissionAggregator,
	issuer TokenGeneratorAPI,
	publisher EventPublisher,
	credentialValidity time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:               repo,
		guard:              guard,
		aggregator:         aggregator,
		issuer:             issuer,
		publisher:          publisher,
		credentialValidity: credentialValidity,
		logger:             logger,
	}
}

// Login runs one authentication attempt. A missing user, an account whose
// status forbids login and a wrong password all collapse into the same
// failed result so callers cannot enumerate usernames. Exactly one login
// event is published per call, after the outcome is determined.
func (s *Service) Login(dto LoginDTO) (*LoginStatusDTO, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	identifier := strings.ToLower(strings.TrimSpace(dto.Username))

	account, err := s.repo.FindByUsernameOrEmail(identifier)
	if err != nil {
		if !errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
		// register the attempt; for unknown users the guard is a no-op
		// reporting a sentinel
		if _, gerr := s.guard.CheckForLocking(identifier); gerr != nil {
			s.logger.Error("login attempt guard failed", "identifier", identifier, "error", gerr)
		}
		s.publishLoginEvent(identifier, false)
		return &LoginStatusDTO{Username: identifier, Logged: false}, nil
	}

	if !account.StatusValid() {
		// the password verifier is deliberately not called for accounts
		// whose status forbids login
		if _, gerr := s.guard.CheckForLocking(account.Username); gerr != nil {
			s.logger.Error("login attempt guard failed", "username", account.Username, "error", gerr)
		}
		s.logger.Warn("login blocked by account status",
			"username", account.Username,
			"enabled", account.Enabled,
			"account_non_expired", account.AccountNonExpired,
			"account_non_locked", account.AccountNonLocked,
			"credentials_non_expired", account.CredentialsNonExpired)
		s.publishLoginEvent(account.Username, false)
		return &LoginStatusDTO{Username: account.Username, Logged: false}, nil
	}

	if err := VerifyPassword(account.PasswordHash, dto.Password); err != nil {
		if _, gerr := s.guard.CheckForLocking(account.Username); gerr != nil {
			s.logger.Error("login attempt guard failed", "username", account.Username, "error", gerr)
		}
		s.publishLoginEvent(account.Username, false)
		return &LoginStatusDTO{Username: account.Username, Logged: false}, nil
	}

	if err := s.guard.ClearLoginAttempts(account.Username); err != nil {
		s.publishLoginEvent(account.Username, false)
		return nil, err
	}

	// permissions are aggregated at issuance time, never cached across
	// logins, so role changes take effect on the next credential
	authorities, err := s.aggregator.FindAllPermissions(account.Username)
	if err != nil {
		s.publishLoginEvent(account.Username, false)
		return nil, err
	}

	tokenString, err := s.issuer.Encode(account.Username, authorities, s.credentialValidity)
	if err != nil {
		s.publishLoginEvent(account.Username, false)
		return nil, internal.NewInternalError("failed to issue credential", err)
	}

	s.publishLoginEvent(account.Username, true)
	s.logger.Info("login succeeded", "username", account.Username, "authorities", len(authorities))

	return &LoginStatusDTO{
		Username: account.Username,
		Logged:   true,
		Token:    tokenString,
	}, nil
}

// ValidateCredential verifies a previously issued credential.
func (s *Service) ValidateCredential(tokenString string) (*Claims, error) {
	return s.issuer.ValidateToken(tokenString)
}

// GetUserWithPermissions loads the principal with a freshly aggregated
// permission set, used by the HTTP middleware to build the request context.
func (s *Service) GetUserWithPermissions(username string) (*User, error) {
	account, err := s.repo.FindByUsernameOrEmail(username)
	if err != nil {
		return nil, err
	}

	authorities, err := s.aggregator.FindAllPermissions(account.Username)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:          account.ID,
		Username:    account.Username,
		Email:       account.Email,
		Permissions: authorities,
	}, nil
}

func (s *Service) publishLoginEvent(username string, loggedIn bool) {
	event := events.NewLoginEvent(username, loggedIn)
	if err := s.publisher.PublishSync(context.Background(), event); err != nil {
		// an audit consumer failure must not change the login outcome
		s.logger.Error("failed to publish login event",
			"username", username,
			"logged_in", loggedIn,
			"error", err)
	}
}
