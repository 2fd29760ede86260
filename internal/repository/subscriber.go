package repository

import (
	"context"
	"time"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriberRepository interface {
	Upsert(ctx context.Context, subscriber *model.NewsletterSubscriber) error
	FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error)
	SetStatus(ctx context.Context, email, status string) (int64, error)
	List(ctx context.Context, status string, page, pageSize int) ([]*model.NewsletterSubscriber, int64, error)
	ListActive(ctx context.Context) ([]*model.NewsletterSubscriber, error)
}

type subscriberRepoImpl struct {
	db *gorm.DB
}

func NewSubscriberRepository(db *gorm.DB) SubscriberRepository {
	return &subscriberRepoImpl{
		db: db,
	}
}

// Upsert keeps one row per email; a repeat subscription reactivates it.
func (r *subscriberRepoImpl) Upsert(ctx context.Context, subscriber *model.NewsletterSubscriber) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"status":     subscriber.Status,
			"updated_at": time.Now(),
		}),
	}).Create(subscriber).Error
}

func (r *subscriberRepoImpl) FindByEmail(ctx context.Context, email string) (*model.NewsletterSubscriber, error) {
	var subscriber model.NewsletterSubscriber
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&subscriber).Error

	if err != nil {
		return nil, err
	}

	return &subscriber, nil
}

func (r *subscriberRepoImpl) SetStatus(ctx context.Context, email, status string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.NewsletterSubscriber{}).
		Where("email = ?", email).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *subscriberRepoImpl) List(ctx context.Context, status string, page, pageSize int) ([]*model.NewsletterSubscriber, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.NewsletterSubscriber{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := normalizePage(page, pageSize)

	var subscribers []*model.NewsletterSubscriber
	err := q.Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&subscribers).Error
	if err != nil {
		return nil, 0, err
	}

	return subscribers, total, nil
}

func (r *subscriberRepoImpl) ListActive(ctx context.Context) ([]*model.NewsletterSubscriber, error) {
	var subscribers []*model.NewsletterSubscriber
	err := r.db.WithContext(ctx).
		Where("status = ?", model.SubscriberActive).
		Order("created_at").
		Find(&subscribers).Error
	if err != nil {
		return nil, err
	}
	return subscribers, nil
}
