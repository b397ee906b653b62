package user

import (
	"errors"
	"log/slog"
	"strings"

	internal "github.com/frahmantamala/user-management/internal"
	"github.com/frahmantamala/user-management/internal/auth"
)

// Repository is the data access contract for user administration.
type Repository interface {
	Create(user *User, passwordHash string) error
	GetByUsername(username string) (*User, error)
	GetByEmail(email string) (*User, error)
	List(limit, offset int) ([]*User, int64, error)
	Update(username string, email, name *string) error
	// Delete removes the user and detaches its role assignments. The
	// roles themselves survive.
	Delete(username string) error
	// SetLocked toggles account_non_locked. Unlocking also zeroes the
	// failed-attempt counter so the user starts from a clean slate.
	SetLocked(username string, locked bool) error
	AssignRole(username, role string) error
	RemoveRole(username, role string) error
	GetRoles(username string) ([]string, error)
}

type Service struct {
	repo       Repository
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) CreateUser(dto CreateUserDTO) (*User, error) {
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

	passwordHash, err := auth.HashPassword(dto.Password, s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	user := &User{
		Username:              dto.Username,
		Email:                 dto.Email,
		Name:                  dto.Name,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}

	if err := s.repo.Create(user, passwordHash); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "username", user.Username)

	return user, nil
}

func (s *Service) GetUser(username string) (*User, error) {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.GetRoles(user.Username)
	if err != nil {
		return nil, err
	}
	user.Roles = roles

	return user, nil
}

func (s *Service) ListUsers(limit, offset int) (*UserListDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}

	return &UserListDTO{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *Service) UpdateUser(username string, dto UpdateUserDTO) (*User, error) {
	if dto.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*dto.Email))
		dto.Email = &normalized
	}
	if dto.Name != nil {
		trimmed := strings.TrimSpace(*dto.Name)
		dto.Name = &trimmed
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByUsername(username)
	if err != nil {
		return nil, err
	}

	if dto.Email != nil && *dto.Email != current.Email {
		if _, err := s.repo.GetByEmail(*dto.Email); err == nil {
			return nil, internal.ErrDuplicateEmail
		} else if !errors.Is(err, internal.ErrUserNotFound) {
			return nil, err
		}
	}

	if err := s.repo.Update(current.Username, dto.Email, dto.Name); err != nil {
		return nil, err
	}

	return s.GetUser(current.Username)
}

func (s *Service) DeleteUser(username string) error {
	if _, err := s.repo.GetByUsername(username); err != nil {
		return err
	}

	if err := s.repo.Delete(username); err != nil {
		return err
	}

	s.logger.Info("user deleted", "username", username)
	return nil
}

// LockUser sets the administrative lock. Unlike the automatic lockout,
// this applies regardless of the attempt counter.
func (s *Service) LockUser(username string) error {
	if _, err := s.repo.GetByUsername(username); err != nil {
		return err
	}
	if err := s.repo.SetLocked(username, true); err != nil {
		return err
	}
	s.logger.Info("user locked", "username", username)
	return nil
}

// UnlockUser clears the lock and the failed-attempt counter.
func (s *Service) UnlockUser(username string) error {
	if _, err := s.repo.GetByUsername(username); err != nil {
		return err
	}
	if err := s.repo.SetLocked(username, false); err != nil {
		return err
	}
	s.logger.Info("user unlocked", "username", username)
	return nil
}

func (s *Service) AssignRole(username string, dto AssignRoleDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByUsername(username); err != nil {
		return nil, err
	}

	if err := s.repo.AssignRole(username, dto.Role); err != nil {
		return nil, err
	}

	s.logger.Info("role assigned", "username", username, "role", dto.Role)

	return s.GetUser(username)
}

func (s *Service) RemoveRole(username, role string) (*User, error) {
	if _, err := s.repo.GetByUsername(username); err != nil {
		return nil, err
	}

	if err := s.repo.RemoveRole(username, role); err != nil {
		return nil, err
	}

	s.logger.Info("role removed", "username", username, "role", role)

	return s.GetUser(username)
}
