package service

import (
	"context"
	"testing"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentConfigService_DefaultCannotBeDeleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentConfigService(db, repository.NewPaymentConfigRepository(db))
	ctx := context.Background()

	stripeCfg, err := svc.Create(ctx, PaymentConfigInput{
		Provider:    model.PaymentProviderStripe,
		DisplayName: "Card",
		IsDefault:   true,
	})
	require.NoError(t, err)
	mobile, err := svc.Create(ctx, PaymentConfigInput{
		Provider:    model.PaymentProviderMobileMoney,
		DisplayName: "M-Pesa",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, stripeCfg.ID), ErrDefaultPaymentConfig)

	_, err = svc.SetDefault(ctx, mobile.ID)
	require.NoError(t, err)

	configs, err := svc.List(ctx)
	require.NoError(t, err)
	defaults := 0
	for _, c := range configs {
		if c.IsDefault {
			defaults++
			assert.Equal(t, mobile.ID, c.ID)
		}
	}
	assert.Equal(t, 1, defaults)

	require.NoError(t, svc.Delete(ctx, stripeCfg.ID))
	assert.ErrorIs(t, svc.Delete(ctx, stripeCfg.ID), ErrNotFound)
}

func TestPaymentConfigService_CreateValidates(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentConfigService(db, repository.NewPaymentConfigRepository(db))

	_, err := svc.Create(context.Background(), PaymentConfigInput{Provider: "paypal", DisplayName: "PayPal"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), PaymentConfigInput{Provider: model.PaymentProviderStripe})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaymentConfigService_FirstConfigBecomesDefault(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentConfigService(db, repository.NewPaymentConfigRepository(db))
	ctx := context.Background()

	first, err := svc.Create(ctx, PaymentConfigInput{
		Provider:    model.PaymentProviderMobileMoney,
		DisplayName: "M-Pesa",
	})
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := svc.Create(ctx, PaymentConfigInput{
		Provider:    model.PaymentProviderStripe,
		DisplayName: "Card",
	})
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	configs, err := svc.List(ctx)
	require.NoError(t, err)
	defaults := 0
	for _, c := range configs {
		if c.IsDefault {
			defaults++
			assert.Equal(t, first.ID, c.ID)
		}
	}
	assert.Equal(t, 1, defaults)
	assert.ErrorIs(t, svc.Delete(ctx, first.ID), ErrDefaultPaymentConfig)
}
