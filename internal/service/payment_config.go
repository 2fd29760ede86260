package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentConfigInput struct {
	Provider       string
	DisplayName    string
	PublishableKey string
	IsDefault      bool
}

type PaymentConfigService interface {
	List(ctx context.Context) ([]*model.PaymentConfiguration, error)
	Create(ctx context.Context, in PaymentConfigInput) (*model.PaymentConfiguration, error)
	SetDefault(ctx context.Context, id string) (*model.PaymentConfiguration, error)
	Delete(ctx context.Context, id string) error
}

type paymentConfigServiceImpl struct {
	db                *gorm.DB
	paymentConfigRepo repository.PaymentConfigRepository
}

func NewPaymentConfigService(db *gorm.DB, paymentConfigRepo repository.PaymentConfigRepository) PaymentConfigService {
	return &paymentConfigServiceImpl{
		db:                db,
		paymentConfigRepo: paymentConfigRepo,
	}
}

func (s *paymentConfigServiceImpl) List(ctx context.Context) ([]*model.PaymentConfiguration, error) {
	configs, err := s.paymentConfigRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payment configurations: %w", err)
	}
	return configs, nil
}

func (s *paymentConfigServiceImpl) Create(ctx context.Context, in PaymentConfigInput) (*model.PaymentConfiguration, error) {
	switch in.Provider {
	case model.PaymentProviderStripe, model.PaymentProviderMobileMoney:
	default:
		return nil, fmt.Errorf("%w: unknown payment provider %q", ErrValidation, in.Provider)
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, fmt.Errorf("%w: display name is required", ErrValidation)
	}

	cfg := &model.PaymentConfiguration{
		ID:             uuid.NewString(),
		Provider:       in.Provider,
		DisplayName:    strings.TrimSpace(in.DisplayName),
		PublishableKey: strings.TrimSpace(in.PublishableKey),
		IsDefault:      in.IsDefault,
		IsActive:       true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !cfg.IsDefault {
			// the first configuration becomes the default
			hasDefault, err := s.paymentConfigRepo.HasDefault(ctx, tx)
			if err != nil {
				return fmt.Errorf("check default: %w", err)
			}
			cfg.IsDefault = !hasDefault
		}
		if cfg.IsDefault {
			if err := s.paymentConfigRepo.ClearDefault(ctx, tx); err != nil {
				return fmt.Errorf("clear default: %w", err)
			}
		}
		if err := s.paymentConfigRepo.Create(ctx, tx, cfg); err != nil {
			return fmt.Errorf("create payment configuration: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// SetDefault leaves exactly one default configuration.
func (s *paymentConfigServiceImpl) SetDefault(ctx context.Context, id string) (*model.PaymentConfiguration, error) {
	var cfg *model.PaymentConfiguration
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.paymentConfigRepo.FindByID(ctx, tx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("get payment configuration: %w", err)
		}

		if err := s.paymentConfigRepo.ClearDefault(ctx, tx); err != nil {
			return fmt.Errorf("clear default: %w", err)
		}
		if _, err := s.paymentConfigRepo.MarkDefault(ctx, tx, id); err != nil {
			return fmt.Errorf("mark default: %w", err)
		}

		var err error
		cfg, err = s.paymentConfigRepo.FindByID(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *paymentConfigServiceImpl) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cfg, err := s.paymentConfigRepo.FindByID(ctx, tx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get payment configuration: %w", err)
		}
		if cfg.IsDefault {
			return ErrDefaultPaymentConfig
		}

		if _, err := s.paymentConfigRepo.Delete(ctx, tx, id); err != nil {
			return fmt.Errorf("delete payment configuration: %w", err)
		}
		return nil
	})
}
