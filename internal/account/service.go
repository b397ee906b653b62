package account

import (
	"errors"
	"log/slog"
	"strings"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
	"github.com/frahmantamala/user-management/internal/core/common/validation"
	"github.com/frahmantamala/user-management/internal/token"
)

// Service drives the account lifecycle: inviting a user, activating the
// pending account through a single-use token and resetting passwords.
type Service struct {
	repo       RepositoryAPI
	tokens     TokenAPI
	mailer     MailerAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, tokens TokenAPI, mailer MailerAPI, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		mailer:     mailer,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// InviteUser creates a pending account and mails an activation link. The
// mail dispatch is fire-and-forget: a relay outage never fails the invite.
func (s *Service) InviteUser(dto InviteUserDTO) (*User, error) {
	dto.Username = strings.ToLower(strings.TrimSpace(dto.Username))
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))
	dto.Name = strings.TrimSpace(dto.Name)

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(dto.Username); err == nil {
		return nil, internal.ErrDuplicateUsername
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(dto.Email); err == nil {
		return nil, internal.ErrDuplicateEmail
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, err
	}

	user := &User{
		Username:              dto.Username,
		Email:                 dto.Email,
		Name:                  dto.Name,
		Enabled:               false,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}

	if err := s.repo.CreatePending(user); err != nil {
		return nil, err
	}

	tokenString, err := s.tokens.Create(user.Username, token.ScopeActivation)
	if err != nil {
		return nil, err
	}

	s.mailer.SendActivationMail(user.Email, user.Name, tokenString)

	s.logger.Info("user invited", "username", user.Username)

	return user, nil
}

// ActivateUser redeems an activation token. The password digest, the
// enabled flag and the token consumption commit in one transaction; a
// second call with the same token fails with the consumed-token error.
func (s *Service) ActivateUser(dto ActivateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.tokens.ValidateScoped(dto.Token, token.ScopeActivation); err != nil {
		return nil, err
	}

	if err := validation.ValidatePassword(dto.Password); err != nil {
		return nil, err
	}

	username, err := s.tokens.GetUsername(dto.Token)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	if user.Enabled {
		return nil, internal.ErrUserEnabled
	}
	if !user.AccountNonExpired {
		return nil, internal.ErrUserExpired
	}
	if !user.AccountNonLocked {
		return nil, internal.ErrUserLocked
	}

	passwordHash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.Activate(username, passwordHash, dto.Token); err != nil {
		return nil, err
	}

	user.Enabled = true
	s.logger.Info("user activated", "username", username)

	return user, nil
}

// ValidateToken is the public probe behind the activation page. Any token
// defect collapses into valid=false; the username is reported when it can
// still be resolved so the page can greet the invitee.
func (s *Service) ValidateToken(tokenString string) *TokenStatusDTO {
	status := &TokenStatusDTO{}

	if username, err := s.tokens.GetUsername(tokenString); err == nil {
		status.Username = username
	}

	status.Valid = s.tokens.ValidateScoped(tokenString, token.ScopeActivation) == nil

	return status
}

// RequestPasswordReset issues a reset token for the account behind the
// email address. An unknown address is a silent no-op so the endpoint
// cannot be used to probe for registered emails.
func (s *Service) RequestPasswordReset(dto PasswordResetRequestDTO) error {
	dto.Email = strings.ToLower(strings.TrimSpace(dto.Email))

	if err := dto.Validate(); err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			s.logger.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	if !user.Enabled {
		// pending accounts go through activation, not reset
		s.logger.Info("password reset requested for pending account", "username", user.Username)
		return nil
	}

	tokenString, err := s.tokens.Create(user.Username, token.ScopePasswordReset)
	if err != nil {
		return err
	}

	s.mailer.SendPasswordResetMail(user.Email, user.Name, tokenString)

	s.logger.Info("password reset token issued", "username", user.Username)

	return nil
}

// ResetPassword redeems a reset token. The new digest, the cleared
// failed-attempt counter and the token consumption commit together. It
// refreshes credentials only; an administrative account lock stays.
func (s *Service) ResetPassword(dto PasswordResetConfirmDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if err := s.tokens.ValidateScoped(dto.Token, token.ScopePasswordReset); err != nil {
		return err
	}

	if err := validation.ValidatePassword(dto.Password); err != nil {
		return err
	}

	username, err := s.tokens.GetUsername(dto.Token)
	if err != nil {
		return err
	}

	user, err := s.repo.GetByUsername(username)
	if err != nil {
		return err
	}

	if !user.Enabled {
		return internal.ErrUserNotFound
	}

	passwordHash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}

	if err := s.repo.ResetPassword(username, passwordHash, dto.Token); err != nil {
		return err
	}

	s.logger.Info("password reset completed", "username", username)

	return nil
}
