package role

import (
	"errors"
	"log/slog"
	"strings"

	internal "github.com/frahmantamala/user-management/internal"
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) CreateRole(dto CreateRoleDTO) (*Role, error) {
	dto.Name = strings.TrimSpace(dto.Name)

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByName(dto.Name); err == nil {
		return nil, internal.ErrDuplicateRole
	} else if !errors.Is(err, internal.ErrRoleNotFound) {
		return nil, err
	}

	role := &Role{Name: dto.Name}
	if err := s.repo.Create(role); err != nil {
		return nil, err
	}

	s.logger.Info("role created", "role", role.Name)

	return role, nil
}

func (s *Service) GetRole(name string) (*Role, error) {
	role, err := s.repo.GetByName(name)
	if err != nil {
		return nil, err
	}

	permissions, err := s.repo.GetGrantedPermissions(role.Name)
	if err != nil {
		return nil, err
	}
	role.Permissions = permissions

	return role, nil
}

func (s *Service) ListRoles() ([]*Role, error) {
	return s.repo.List()
}

func (s *Service) DeleteRole(name string) error {
	if _, err := s.repo.GetByName(name); err != nil {
		return err
	}

	if err := s.repo.Delete(name); err != nil {
		return err
	}

	s.logger.Info("role deleted", "role", name)
	return nil
}

// GrantPermission turns the (resource, action) grant on for the role.
// Regranting an active permission is a no-op.
func (s *Service) GrantPermission(roleName string, dto PermissionRefDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Grant(roleName, dto.Resource, dto.Action); err != nil {
		return nil, err
	}

	s.logger.Info("permission granted", "role", roleName, "resource", dto.Resource, "action", dto.Action)

	return s.GetRole(roleName)
}

// RevokePermission turns the grant off while keeping the association, so
// regranting later is a flag flip.
func (s *Service) RevokePermission(roleName string, dto PermissionRefDTO) (*Role, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Revoke(roleName, dto.Resource, dto.Action); err != nil {
		return nil, err
	}

	s.logger.Info("permission revoked", "role", roleName, "resource", dto.Resource, "action", dto.Action)

	return s.GetRole(roleName)
}
