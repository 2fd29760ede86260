package repository

import (
	"context"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	Category    string
	InStockOnly bool
	Page        int
	PageSize    int
}

type ProductRepository interface {
	Seed(ctx context.Context, products []model.Product) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Product{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.InStockOnly {
		q = q.Where("in_stock = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(filter.Page, filter.PageSize)

	var products []*model.Product
	err := q.Order("created_at DESC, id").
		Limit(size).
		Offset((page - 1) * size).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}

	return products, total, nil
}
