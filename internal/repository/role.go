package repository

import (
	"context"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.UserRole) error
	Delete(ctx context.Context, id string) (int64, error)
	List(ctx context.Context) ([]*model.UserRole, error)
	HasAnyRole(ctx context.Context, userID string, roles []string) (bool, error)
}

type roleRepoImpl struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepoImpl{
		db: db,
	}
}

func (r *roleRepoImpl) Create(ctx context.Context, role *model.UserRole) error {
	return r.db.WithContext(ctx).Create(role).Error
}

func (r *roleRepoImpl) Delete(ctx context.Context, id string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.UserRole{})
	return result.RowsAffected, result.Error
}

func (r *roleRepoImpl) List(ctx context.Context) ([]*model.UserRole, error) {
	var roles []*model.UserRole
	err := r.db.WithContext(ctx).Order("user_id, role").Find(&roles).Error
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *roleRepoImpl) HasAnyRole(ctx context.Context, userID string, roles []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.UserRole{}).
		Where("user_id = ?", userID).
		Where("role IN ?", roles).
		Count(&count).Error

	return count > 0, err
}
