package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusArrived    OrderStatus = "arrived"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// orderStatusRank is the lifecycle ordering. cancelled sits outside it.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusConfirmed:  1,
	OrderStatusProcessing: 2,
	OrderStatusShipped:    3,
	OrderStatusArrived:    4,
	OrderStatusDelivered:  5,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(s)
	if status == OrderStatusCancelled {
		return status, true
	}
	_, ok := orderStatusRank[status]
	return status, ok
}

// Rank reports the position of s in the lifecycle ordering.
// ok is false for cancelled and unknown values.
func (s OrderStatus) Rank() (rank int, ok bool) {
	rank, ok = orderStatusRank[s]
	return rank, ok
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Notifies reports whether entering s sends the customer an email.
func (s OrderStatus) Notifies() bool {
	switch s {
	case OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusArrived, OrderStatusDelivered:
		return true
	}
	return false
}

const (
	PaymentProviderStripe      = "stripe"
	PaymentProviderMobileMoney = "mobile_money"
)

type LineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (i LineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID                string                        `json:"id" gorm:"primaryKey;size:36"`
	CustomerEmail     string                        `json:"customer_email" gorm:"size:255;index;not null"`
	CustomerName      string                        `json:"customer_name,omitempty" gorm:"size:255"`
	TotalAmount       decimal.Decimal               `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	Currency          string                        `json:"currency" gorm:"size:8;not null"`
	Status            OrderStatus                   `json:"status" gorm:"size:32;index;not null"`
	Items             datatypes.JSONSlice[LineItem] `json:"items"`
	ShippingAddress   string                        `json:"shipping_address,omitempty" gorm:"type:text"`
	TrackingNumber    string                        `json:"tracking_number,omitempty" gorm:"size:128"`
	TrackingCarrier   string                        `json:"tracking_carrier,omitempty" gorm:"size:64"`
	EstimatedDelivery *time.Time                    `json:"estimated_delivery,omitempty"`
	ShippedAt         *time.Time                    `json:"shipped_at,omitempty"`
	DeliveredAt       *time.Time                    `json:"delivered_at,omitempty"`
	AdminNotes        string                        `json:"admin_notes,omitempty" gorm:"type:text"`
	PaymentProvider   string                        `json:"payment_provider" gorm:"size:32;not null"`
	PaymentReference  string                        `json:"payment_reference" gorm:"size:128;uniqueIndex;not null"`
	Version           int                           `json:"version" gorm:"not null;default:1"`
	CreatedAt         time.Time                     `json:"created_at"`
	UpdatedAt         time.Time                     `json:"updated_at"`
}

// ItemsTotal sums the line-item subtotals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}
