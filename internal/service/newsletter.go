package service

import (
	"context"
	"fmt"
	"strings"

	"circular-storefront/internal/model"
	"circular-storefront/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type NewsletterService interface {
	Subscribe(ctx context.Context, email, name, source string) (*model.NewsletterSubscriber, error)
	Unsubscribe(ctx context.Context, email string) error
	List(ctx context.Context, status string, page, pageSize int) ([]*model.NewsletterSubscriber, int64, error)
}

type newsletterServiceImpl struct {
	subscriberRepo repository.SubscriberRepository
	validate       *validator.Validate
}

func NewNewsletterService(subscriberRepo repository.SubscriberRepository) NewsletterService {
	return &newsletterServiceImpl{
		subscriberRepo: subscriberRepo,
		validate:       validator.New(),
	}
}

func (s *newsletterServiceImpl) normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.validate.Var(email, "required,email,max=255"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}
	return email, nil
}

func (s *newsletterServiceImpl) Subscribe(ctx context.Context, email, name, source string) (*model.NewsletterSubscriber, error) {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	err = s.subscriberRepo.Upsert(ctx, &model.NewsletterSubscriber{
		ID:     uuid.NewString(),
		Email:  email,
		Name:   strings.TrimSpace(name),
		Source: source,
		Status: model.SubscriberActive,
	})
	if err != nil {
		return nil, fmt.Errorf("save subscriber: %w", err)
	}

	subscriber, err := s.subscriberRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("reload subscriber: %w", err)
	}
	return subscriber, nil
}

func (s *newsletterServiceImpl) Unsubscribe(ctx context.Context, email string) error {
	email, err := s.normalizeEmail(email)
	if err != nil {
		return err
	}

	rows, err := s.subscriberRepo.SetStatus(ctx, email, model.SubscriberUnsubscribed)
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *newsletterServiceImpl) List(ctx context.Context, status string, page, pageSize int) ([]*model.NewsletterSubscriber, int64, error) {
	switch status {
	case "", model.SubscriberActive, model.SubscriberUnsubscribed:
	default:
		return nil, 0, fmt.Errorf("%w: unknown subscriber status %q", ErrValidation, status)
	}

	subscribers, total, err := s.subscriberRepo.List(ctx, status, page, pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("list subscribers: %w", err)
	}
	return subscribers, total, nil
}
