package service

import (
	"context"
	"errors"
	"fmt"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductService interface {
	List(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, int64, error)
	Get(ctx context.Context, productID string) (*model.Product, error)
	// Seed inserts products that do not exist yet. Used for local development.
	Seed(ctx context.Context, products []model.Product) error
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

func (s *productServiceImpl) List(ctx context.Context, filter repository.ProductFilter) ([]*model.Product, int64, error) {
	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (s *productServiceImpl) Get(ctx context.Context, productID string) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *productServiceImpl) Seed(ctx context.Context, products []model.Product) error {
	if err := s.productRepo.Seed(ctx, products); err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	return nil
}

// DemoCatalog is the development catalogue.
func DemoCatalog() []model.Product {
	return []model.Product{
		{ID: "JKT-DENIM-001", Name: "Vintage denim jacket", Category: "outerwear", Size: "M", Condition: "good", Price: decimal.RequireFromString("45.00"), Currency: "GBP", InStock: true},
		{ID: "DRS-SLK-014", Name: "Silk slip dress", Category: "dresses", Size: "S", Condition: "like_new", Price: decimal.RequireFromString("38.50"), Currency: "GBP", InStock: true},
		{ID: "KNT-WOOL-007", Name: "Hand-knit wool jumper", Category: "knitwear", Size: "L", Condition: "good", Price: decimal.RequireFromString("29.00"), Currency: "GBP", InStock: true},
		{ID: "BAG-LTH-003", Name: "Leather tote", Category: "accessories", Condition: "fair", Price: decimal.RequireFromString("52.00"), Currency: "GBP", InStock: false},
	}
}
