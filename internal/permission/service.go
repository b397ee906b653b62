package permission

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

func (s *Service) CreatePermission(dto CreatePermissionDTO) (*Permission, error) {
	dto.Resource = strings.ToLower(strings.TrimSpace(dto.Resource))
	dto.Action = strings.ToLower(strings.TrimSpace(dto.Action))

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.repo.Get(dto.Resource, dto.Action); err == nil {
		return nil, internal.ErrDuplicatePermission
	} else if !errors.Is(err, internal.ErrPermissionNotFound) {
		return nil, err
	}

	perm := &Permission{Resource: dto.Resource, Action: dto.Action}
	if err := s.repo.Create(perm); err != nil {
		return nil, err
	}

	s.logger.Info("permission created", "key", perm.Key())

	return perm, nil
}

func (s *Service) ListPermissions() ([]*Permission, error) {
	return s.repo.List()
}

func (s *Service) DeletePermission(resource, action string) error {
	if _, err := s.repo.Get(resource, action); err != nil {
		return err
	}

	if err := s.repo.Delete(resource, action); err != nil {
		return err
	}

	s.logger.Info("permission deleted", "resource", resource, "action", action)
	return nil
}
