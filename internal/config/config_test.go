package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSOrigins)
	assert.False(t, cfg.Orders.StrictTransitions)
	assert.Equal(t, 2, cfg.Orders.NotificationWorkers)
	assert.Equal(t, 5*time.Minute, cfg.Stripe.Tolerance)
	assert.Equal(t, "admin_messages:insert", cfg.Redis.Channel)
}

func TestLoad_Prefixes(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_1")
	t.Setenv("MOBILE_MONEY_WEBHOOK_SECRET", "mm_1")
	t.Setenv("ORDER_STRICT_TRANSITIONS", "true")
	t.Setenv("HTTP_CORS_ORIGINS", "https://shop.example,https://admin.shop.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "whsec_1", cfg.Stripe.WebhookSecret)
	assert.Equal(t, "mm_1", cfg.MobileMoney.WebhookSecret)
	assert.True(t, cfg.Orders.StrictTransitions)
	assert.Equal(t, []string{"https://shop.example", "https://admin.shop.example"}, cfg.HTTP.CORSOrigins)
}

func TestValidate(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	_, err := Load()
	assert.ErrorContains(t, err, "AUTH_JWT_SECRET")

	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "STRIPE_WEBHOOK_SECRET")

	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DATABASE_DRIVER", "oracle")
	_, err = Load()
	assert.ErrorContains(t, err, "unsupported database driver")
}
