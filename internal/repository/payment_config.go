package repository

import (
	"context"
	"time"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
)

type PaymentConfigRepository interface {
	List(ctx context.Context) ([]*model.PaymentConfiguration, error)
	FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.PaymentConfiguration, error)
	Create(ctx context.Context, tx *gorm.DB, cfg *model.PaymentConfiguration) error
	HasDefault(ctx context.Context, tx *gorm.DB) (bool, error)
	ClearDefault(ctx context.Context, tx *gorm.DB) error
	MarkDefault(ctx context.Context, tx *gorm.DB, id string) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) (int64, error)
}

type paymentConfigRepoImpl struct {
	db *gorm.DB
}

func NewPaymentConfigRepository(db *gorm.DB) PaymentConfigRepository {
	return &paymentConfigRepoImpl{
		db: db,
	}
}

func (r *paymentConfigRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *paymentConfigRepoImpl) List(ctx context.Context) ([]*model.PaymentConfiguration, error) {
	var configs []*model.PaymentConfiguration
	err := r.db.WithContext(ctx).Order("is_default DESC, created_at").Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *paymentConfigRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, id string) (*model.PaymentConfiguration, error) {
	var cfg model.PaymentConfiguration
	err := r.conn(tx).WithContext(ctx).Where("id = ?", id).First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *paymentConfigRepoImpl) Create(ctx context.Context, tx *gorm.DB, cfg *model.PaymentConfiguration) error {
	return r.conn(tx).WithContext(ctx).Create(cfg).Error
}

func (r *paymentConfigRepoImpl) HasDefault(ctx context.Context, tx *gorm.DB) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&model.PaymentConfiguration{}).
		Where("is_default = ?", true).
		Count(&count).Error
	return count > 0, err
}

func (r *paymentConfigRepoImpl) ClearDefault(ctx context.Context, tx *gorm.DB) error {
	return r.conn(tx).WithContext(ctx).Model(&model.PaymentConfiguration{}).
		Where("is_default = ?", true).
		Updates(map[string]interface{}{
			"is_default": false,
			"updated_at": time.Now(),
		}).Error
}

func (r *paymentConfigRepoImpl) MarkDefault(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	result := r.conn(tx).WithContext(ctx).Model(&model.PaymentConfiguration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_default": true,
			"is_active":  true,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *paymentConfigRepoImpl) Delete(ctx context.Context, tx *gorm.DB, id string) (int64, error) {
	result := r.conn(tx).WithContext(ctx).Where("id = ?", id).Delete(&model.PaymentConfiguration{})
	return result.RowsAffected, result.Error
}
