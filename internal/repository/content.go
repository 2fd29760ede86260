package repository

import (
	"context"
	"time"

	"circular-storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ContentRepository interface {
	Find(ctx context.Context, page, section string) (*model.SiteContent, error)
	ListByPage(ctx context.Context, page string) ([]*model.SiteContent, error)
	List(ctx context.Context) ([]*model.SiteContent, error)
	Upsert(ctx context.Context, content *model.SiteContent) error
}

type contentRepoImpl struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepoImpl{
		db: db,
	}
}

func (r *contentRepoImpl) Find(ctx context.Context, page, section string) (*model.SiteContent, error) {
	var content model.SiteContent
	err := r.db.WithContext(ctx).
		Where("page_name = ? AND section_key = ?", page, section).
		First(&content).Error

	if err != nil {
		return nil, err
	}

	return &content, nil
}

func (r *contentRepoImpl) ListByPage(ctx context.Context, page string) ([]*model.SiteContent, error) {
	var sections []*model.SiteContent
	err := r.db.WithContext(ctx).
		Where("page_name = ?", page).
		Order("section_key").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *contentRepoImpl) List(ctx context.Context) ([]*model.SiteContent, error) {
	var sections []*model.SiteContent
	err := r.db.WithContext(ctx).
		Order("page_name, section_key").
		Find(&sections).Error
	if err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *contentRepoImpl) Upsert(ctx context.Context, content *model.SiteContent) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "page_name"}, {Name: "section_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"content":    content.Content,
			"updated_by": content.UpdatedBy,
			"updated_at": time.Now(),
		}),
	}).Create(content).Error
}
