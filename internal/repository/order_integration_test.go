//go:build integration

package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"circular-storefront/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "storefront",
			"POSTGRES_PASSWORD": "storefront",
			"POSTGRES_DB":       "storefront",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://storefront:storefront@%s:%s/storefront?sslmode=disable", host, port.Port())
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.Order{}, &model.WebhookEvent{}))
	return db
}

func TestOrderRepository_Postgres(t *testing.T) {
	db := setupPostgres(t)
	runOrderRepositorySuite(t, db)

	t.Run("concurrent versioned writes", func(t *testing.T) {
		repo := NewOrderRepository(db)
		ctx := context.Background()
		order := newOrder("race@example.com", "cs_race")
		require.NoError(t, repo.Create(ctx, nil, order))

		var wg sync.WaitGroup
		var mu sync.Mutex
		var applied int64
		for _, status := range []model.OrderStatus{model.OrderStatusShipped, model.OrderStatusCancelled, model.OrderStatusProcessing} {
			status := status
			wg.Add(1)
			go func() {
				defer wg.Done()
				rows, err := repo.UpdateStatus(ctx, nil, order.ID, status, 1, time.Now())
				assert.NoError(t, err)
				mu.Lock()
				applied += rows
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.EqualValues(t, 1, applied)
		got, err := repo.FindByID(ctx, nil, order.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)
	})
}
