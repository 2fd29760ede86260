package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"circular-storefront/internal/events"
	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type NotificationState string

const (
	NotificationQueued        NotificationState = "queued"
	NotificationDropped       NotificationState = "dropped"
	NotificationNotApplicable NotificationState = "not_applicable"
)

type StatusResult struct {
	Order        *model.Order
	Notification NotificationState
}

// carriers is a suggestion list only; tracking_carrier accepts any value.
var carriers = []string{"Royal Mail", "DPD", "DHL", "Evri", "UPS", "FedEx", "Parcelforce"}

type OrderService interface {
	// SetStatus moves an order to status. expectedVersion 0 means
	// last-write-wins.
	SetStatus(ctx context.Context, orderID, status string, expectedVersion int) (*StatusResult, error)
	SetTracking(ctx context.Context, orderID string, fields repository.TrackingFields) (*model.Order, error)
	Get(ctx context.Context, orderID string) (*model.Order, error)
	List(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, int64, error)
	Track(ctx context.Context, orderID, email string) (*model.Order, error)
	Carriers() []string
}

type OrderServiceOptions struct {
	StrictTransitions bool
	Now               func() time.Time
}

type orderServiceImpl struct {
	db        *gorm.DB
	orderRepo repository.OrderRepository
	publisher events.Publisher
	strict    bool
	now       func() time.Time
	log       *zap.Logger
}

func NewOrderService(
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	publisher events.Publisher,
	opts OrderServiceOptions,
	log *zap.Logger,
) OrderService {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &orderServiceImpl{
		db:        db,
		orderRepo: orderRepo,
		publisher: publisher,
		strict:    opts.StrictTransitions,
		now:       now,
		log:       log,
	}
}

func (s *orderServiceImpl) SetStatus(ctx context.Context, orderID, status string, expectedVersion int) (*StatusResult, error) {
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var updated *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return lookupErr(err)
		}

		if expectedVersion > 0 && current.Version != expectedVersion {
			return ErrVersionConflict
		}
		if s.strict {
			if err := checkTransition(current.Status, next); err != nil {
				return err
			}
		}

		rows, err := s.orderRepo.UpdateStatus(ctx, tx, orderID, next, expectedVersion, s.now())
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		if rows == 0 {
			return ErrVersionConflict
		}

		updated, err = s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &StatusResult{Order: updated, Notification: NotificationNotApplicable}
	if next.Notifies() {
		if s.publisher.Publish(statusChanged(updated)) {
			result.Notification = NotificationQueued
		} else {
			result.Notification = NotificationDropped
			s.log.Warn("order notification dropped",
				zap.String("order_id", orderID), zap.String("status", string(next)))
		}
	}
	return result, nil
}

// checkTransition enforces forward-only moves. cancelled is reachable from
// any non-terminal state and re-applying the current status is allowed.
func checkTransition(from, to model.OrderStatus) error {
	if from == to {
		return nil
	}
	if from.Terminal() {
		return fmt.Errorf("%w: %s is final", ErrTransitionNotAllowed, from)
	}
	if to == model.OrderStatusCancelled {
		return nil
	}

	fromRank, fromOK := from.Rank()
	toRank, _ := to.Rank()
	if fromOK && toRank < fromRank {
		return fmt.Errorf("%w: %s to %s", ErrTransitionNotAllowed, from, to)
	}
	return nil
}

func statusChanged(o *model.Order) events.StatusChanged {
	return events.StatusChanged{
		OrderID:           o.ID,
		RecipientEmail:    o.CustomerEmail,
		RecipientName:     o.CustomerName,
		NewStatus:         o.Status,
		TotalAmount:       o.TotalAmount,
		Currency:          o.Currency,
		TrackingNumber:    o.TrackingNumber,
		TrackingCarrier:   o.TrackingCarrier,
		EstimatedDelivery: o.EstimatedDelivery,
	}
}

func (s *orderServiceImpl) SetTracking(ctx context.Context, orderID string, fields repository.TrackingFields) (*model.Order, error) {
	var updated *model.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := s.orderRepo.UpdateTracking(ctx, tx, orderID, fields, s.now())
		if err != nil {
			return fmt.Errorf("update tracking: %w", err)
		}
		if rows == 0 {
			return ErrOrderNotFound
		}

		updated, err = s.orderRepo.FindByID(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *orderServiceImpl) Get(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, nil, orderID)
	if err != nil {
		return nil, lookupErr(err)
	}
	return order, nil
}

func (s *orderServiceImpl) List(ctx context.Context, filter repository.OrderFilter) ([]*model.Order, int64, error) {
	if filter.Status != "" {
		if _, ok := model.ParseOrderStatus(string(filter.Status)); !ok {
			return nil, 0, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
		}
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// Track is the customer lookup; the email must match the order.
func (s *orderServiceImpl) Track(ctx context.Context, orderID, email string) (*model.Order, error) {
	if orderID == "" || email == "" {
		return nil, fmt.Errorf("%w: order id and email are required", ErrValidation)
	}

	order, err := s.orderRepo.FindForCustomer(ctx, orderID, email)
	if err != nil {
		return nil, lookupErr(err)
	}
	return order, nil
}

func (s *orderServiceImpl) Carriers() []string {
	out := make([]string, len(carriers))
	copy(out, carriers)
	return out
}

func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrOrderNotFound
	}
	return fmt.Errorf("get order: %w", err)
}
