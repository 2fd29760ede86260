package repository

import (
	"context"
	"testing"
	"time"

	"circular-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&model.Order{}, &model.WebhookEvent{}))
	return db
}

func newOrder(email, reference string) *model.Order {
	return &model.Order{
		ID:               uuid.NewString(),
		CustomerEmail:    email,
		TotalAmount:      decimal.RequireFromString("12.50"),
		Currency:         "GBP",
		Status:           model.OrderStatusPending,
		PaymentProvider:  model.PaymentProviderStripe,
		PaymentReference: reference,
		Version:          1,
	}
}

// exercises every repository test against a given connection; the
// integration build reuses it against postgres
func runOrderRepositorySuite(t *testing.T, db *gorm.DB) {
	repo := NewOrderRepository(db)
	ctx := context.Background()

	t.Run("payment reference is unique", func(t *testing.T) {
		ref := "cs_" + uuid.NewString()
		require.NoError(t, repo.Create(ctx, nil, newOrder("a@example.com", ref)))
		err := repo.Create(ctx, nil, newOrder("b@example.com", ref))
		assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
	})

	t.Run("shipped_at is stamped once", func(t *testing.T) {
		order := newOrder("c@example.com", "cs_"+uuid.NewString())
		require.NoError(t, repo.Create(ctx, nil, order))

		first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		rows, err := repo.UpdateStatus(ctx, nil, order.ID, model.OrderStatusShipped, 0, first)
		require.NoError(t, err)
		assert.EqualValues(t, 1, rows)

		_, err = repo.UpdateStatus(ctx, nil, order.ID, model.OrderStatusProcessing, 0, first.Add(time.Hour))
		require.NoError(t, err)
		_, err = repo.UpdateStatus(ctx, nil, order.ID, model.OrderStatusShipped, 0, first.Add(2*time.Hour))
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, nil, order.ID)
		require.NoError(t, err)
		require.NotNil(t, got.ShippedAt)
		assert.True(t, got.ShippedAt.Equal(first))
		assert.Nil(t, got.DeliveredAt)
		assert.Equal(t, 4, got.Version)
	})

	t.Run("stale version updates nothing", func(t *testing.T) {
		order := newOrder("d@example.com", "cs_"+uuid.NewString())
		require.NoError(t, repo.Create(ctx, nil, order))

		rows, err := repo.UpdateStatus(ctx, nil, order.ID, model.OrderStatusConfirmed, 1, time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 1, rows)

		rows, err = repo.UpdateStatus(ctx, nil, order.ID, model.OrderStatusCancelled, 1, time.Now())
		require.NoError(t, err)
		assert.EqualValues(t, 0, rows)
	})

	t.Run("tracking fields are partial", func(t *testing.T) {
		order := newOrder("e@example.com", "cs_"+uuid.NewString())
		require.NoError(t, repo.Create(ctx, nil, order))

		number, carrier := "RM1", "Royal Mail"
		_, err := repo.UpdateTracking(ctx, nil, order.ID, TrackingFields{TrackingNumber: &number, TrackingCarrier: &carrier}, time.Now())
		require.NoError(t, err)

		notes := "left with neighbour"
		_, err = repo.UpdateTracking(ctx, nil, order.ID, TrackingFields{AdminNotes: &notes}, time.Now())
		require.NoError(t, err)

		got, err := repo.FindByID(ctx, nil, order.ID)
		require.NoError(t, err)
		assert.Equal(t, "RM1", got.TrackingNumber)
		assert.Equal(t, "Royal Mail", got.TrackingCarrier)
		assert.Equal(t, notes, got.AdminNotes)
	})

	t.Run("customer lookup ignores email case", func(t *testing.T) {
		order := newOrder("Mixed@Example.com", "cs_"+uuid.NewString())
		require.NoError(t, repo.Create(ctx, nil, order))

		got, err := repo.FindForCustomer(ctx, order.ID, "mixed@example.COM")
		require.NoError(t, err)
		assert.Equal(t, order.ID, got.ID)

		_, err = repo.FindForCustomer(ctx, order.ID, "other@example.com")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("webhook events are recorded once", func(t *testing.T) {
		events := NewWebhookEventRepository(db)
		id := "evt_" + uuid.NewString()

		ok, err := events.Exists(ctx, id)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, events.MarkProcessed(ctx, nil, id, "checkout.session.completed", model.PaymentProviderStripe))
		assert.ErrorIs(t, events.MarkProcessed(ctx, nil, id, "checkout.session.completed", model.PaymentProviderStripe), gorm.ErrDuplicatedKey)

		ok, err = events.Exists(ctx, id)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestOrderRepository(t *testing.T) {
	runOrderRepositorySuite(t, openSQLite(t))
}

func TestListFiltersAndPaginates(t *testing.T) {
	db := openSQLite(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, nil, newOrder("list@example.com", "cs_"+uuid.NewString())))
	}
	shipped := newOrder("list@example.com", "cs_"+uuid.NewString())
	shipped.Status = model.OrderStatusShipped
	require.NoError(t, repo.Create(ctx, nil, shipped))

	orders, total, err := repo.List(ctx, OrderFilter{Status: model.OrderStatusPending, Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, orders, 2)

	orders, total, err = repo.List(ctx, OrderFilter{Email: "LIST@example.com"})
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
	assert.Len(t, orders, 6)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
}
