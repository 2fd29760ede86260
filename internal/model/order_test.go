package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	for _, s := range []string{"pending", "confirmed", "processing", "shipped", "arrived", "delivered", "cancelled"} {
		status, ok := ParseOrderStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, OrderStatus(s), status)
	}

	for _, s := range []string{"", "Shipped", "refunded"} {
		_, ok := ParseOrderStatus(s)
		assert.False(t, ok, s)
	}
}

func TestOrderStatusRankIsLifecycleOrder(t *testing.T) {
	order := []OrderStatus{
		OrderStatusPending, OrderStatusConfirmed, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusArrived, OrderStatusDelivered,
	}
	for i, s := range order {
		rank, ok := s.Rank()
		assert.True(t, ok)
		assert.Equal(t, i, rank)
	}

	_, ok := OrderStatusCancelled.Rank()
	assert.False(t, ok)
}

func TestOrderStatusNotifies(t *testing.T) {
	assert.False(t, OrderStatusPending.Notifies())
	assert.False(t, OrderStatusCancelled.Notifies())
	for _, s := range []OrderStatus{OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusArrived, OrderStatusDelivered} {
		assert.True(t, s.Notifies(), s)
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.Terminal())
	assert.True(t, OrderStatusCancelled.Terminal())
	assert.False(t, OrderStatusArrived.Terminal())
}

func TestItemsTotal(t *testing.T) {
	o := &Order{Items: []LineItem{
		{Name: "Jacket", Quantity: 1, Price: decimal.RequireFromString("45.00")},
		{Name: "Socks", Quantity: 3, Price: decimal.RequireFromString("2.10")},
	}}
	assert.True(t, o.ItemsTotal().Equal(decimal.RequireFromString("51.30")))

	assert.True(t, (&Order{}).ItemsTotal().IsZero())
}
