package repository

import (
	"context"
	"time"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
)

type OrderFilter struct {
	Status   model.OrderStatus
	Email    string
	Page     int
	PageSize int
}

// TrackingFields is a partial write; nil fields are left untouched.
type TrackingFields struct {
	TrackingNumber    *string
	TrackingCarrier   *string
	EstimatedDelivery *time.Time
	AdminNotes        *string
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindByPaymentReference(ctx context.Context, tx *gorm.DB, reference string) (*model.Order, error)
	FindForCustomer(ctx context.Context, orderID, email string) (*model.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus, expectedVersion int, now time.Time) (int64, error)
	UpdateTracking(ctx context.Context, tx *gorm.DB, orderID string, fields TrackingFields, now time.Time) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return r.conn(tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByPaymentReference(ctx context.Context, tx *gorm.DB, reference string) (*model.Order, error) {
	var order model.Order
	err := r.conn(tx).WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindForCustomer(ctx context.Context, orderID, email string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ? AND LOWER(customer_email) = LOWER(?)", orderID, email).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter OrderFilter) ([]*model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Email != "" {
		q = q.Where("LOWER(customer_email) = LOWER(?)", filter.Email)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(filter.Page, filter.PageSize)

	var orders []*model.Order
	err := q.Order("created_at DESC, id DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// UpdateStatus writes the status and bumps the version. shipped_at and
// delivered_at are only ever filled once. expectedVersion 0 skips the
// version check.
func (r *orderRepoImpl) UpdateStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.OrderStatus, expectedVersion int, now time.Time) (int64, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
		"version":    gorm.Expr("version + 1"),
	}
	switch status {
	case model.OrderStatusShipped:
		updates["shipped_at"] = gorm.Expr("COALESCE(shipped_at, ?)", now)
	case model.OrderStatusDelivered:
		updates["delivered_at"] = gorm.Expr("COALESCE(delivered_at, ?)", now)
	}

	q := r.conn(tx).WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID)
	if expectedVersion > 0 {
		q = q.Where("version = ?", expectedVersion)
	}

	result := q.Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *orderRepoImpl) UpdateTracking(ctx context.Context, tx *gorm.DB, orderID string, fields TrackingFields, now time.Time) (int64, error) {
	updates := map[string]interface{}{
		"updated_at": now,
		"version":    gorm.Expr("version + 1"),
	}
	if fields.TrackingNumber != nil {
		updates["tracking_number"] = *fields.TrackingNumber
	}
	if fields.TrackingCarrier != nil {
		updates["tracking_carrier"] = *fields.TrackingCarrier
	}
	if fields.EstimatedDelivery != nil {
		updates["estimated_delivery"] = *fields.EstimatedDelivery
	}
	if fields.AdminNotes != nil {
		updates["admin_notes"] = *fields.AdminNotes
	}

	result := r.conn(tx).WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	return result.RowsAffected, result.Error
}
