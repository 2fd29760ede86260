package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleService interface {
	Assign(ctx context.Context, userID, role string) (*model.UserRole, error)
	Revoke(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.UserRole, error)
	HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error)
}

type roleServiceImpl struct {
	roleRepo repository.RoleRepository
}

func NewRoleService(roleRepo repository.RoleRepository) RoleService {
	return &roleServiceImpl{
		roleRepo: roleRepo,
	}
}

func validRole(role string) bool {
	return role == model.RoleAdmin || role == model.RoleModerator
}

func (s *roleServiceImpl) Assign(ctx context.Context, userID, role string) (*model.UserRole, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if !validRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	has, err := s.roleRepo.HasAnyRole(ctx, userID, []string{role})
	if err != nil {
		return nil, fmt.Errorf("check role: %w", err)
	}
	if has {
		return nil, ErrDuplicateRole
	}

	userRole := &model.UserRole{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
	}
	if err := s.roleRepo.Create(ctx, userRole); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRole
		}
		return nil, fmt.Errorf("create role: %w", err)
	}
	return userRole, nil
}

func (s *roleServiceImpl) Revoke(ctx context.Context, id string) error {
	rows, err := s.roleRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *roleServiceImpl) List(ctx context.Context) ([]*model.UserRole, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

func (s *roleServiceImpl) HasAnyRole(ctx context.Context, userID string, roles ...string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	return s.roleRepo.HasAnyRole(ctx, userID, roles)
}
