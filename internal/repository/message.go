package repository

import (
	"context"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.AdminMessage) error
	// ListConversation returns the newest limit messages oldest-first.
	// An empty partner selects the all-staff channel.
	ListConversation(ctx context.Context, viewer, partner string, limit int) ([]*model.AdminMessage, error)
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepoImpl{
		db: db,
	}
}

func (r *messageRepoImpl) Create(ctx context.Context, msg *model.AdminMessage) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepoImpl) ListConversation(ctx context.Context, viewer, partner string, limit int) ([]*model.AdminMessage, error) {
	q := r.db.WithContext(ctx).Model(&model.AdminMessage{})
	if partner == "" {
		q = q.Where("recipient_id IS NULL")
	} else {
		q = q.Where(
			"(sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)",
			viewer, partner, partner, viewer,
		)
	}

	var messages []*model.AdminMessage
	err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
