package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;size:64;not null"` // product sku
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Currency    string          `json:"currency" gorm:"size:8;not null"`
	Category    string          `json:"category" gorm:"size:64;index"`
	Size        string          `json:"size,omitempty" gorm:"size:32"`
	Condition   string          `json:"condition,omitempty" gorm:"size:32"` // new, like_new, good, fair
	ImageURL    string          `json:"image_url,omitempty" gorm:"size:512"`
	InStock     bool            `json:"in_stock" gorm:"not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;uniqueIndex;not null"`
	EventType   string `gorm:"size:64;index"`
	Provider    string `gorm:"size:32;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type NewsletterSubscriber struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Email     string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Name      string    `json:"name,omitempty" gorm:"size:255"`
	Source    string    `json:"source,omitempty" gorm:"size:64"` // footer, checkout, popup
	Status    string    `json:"status" gorm:"size:32;index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	SubscriberActive       = "active"
	SubscriberUnsubscribed = "unsubscribed"
)

type UserRole struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    string    `json:"user_id" gorm:"size:64;not null;uniqueIndex:idx_user_role"`
	Role      string    `json:"role" gorm:"size:32;not null;uniqueIndex:idx_user_role"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// SiteContent is one CMS section. Content is free-form JSON.
type SiteContent struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	PageName   string         `json:"page_name" gorm:"size:64;not null;uniqueIndex:idx_page_section"`
	SectionKey string         `json:"section_key" gorm:"size:64;not null;uniqueIndex:idx_page_section"`
	Content    datatypes.JSON `json:"content"`
	UpdatedBy  string         `json:"updated_by,omitempty" gorm:"size:64"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (SiteContent) TableName() string { return "site_content" }

type AdminMessage struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	SenderID    string    `json:"sender_id" gorm:"size:64;index;not null"`
	RecipientID *string   `json:"recipient_id" gorm:"size:64;index"` // nil: every staff member
	Content     string    `json:"content" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}

type PaymentConfiguration struct {
	ID             string    `json:"id" gorm:"primaryKey;size:36"`
	Provider       string    `json:"provider" gorm:"size:32;not null"` // stripe, mobile_money
	DisplayName    string    `json:"display_name" gorm:"size:128;not null"`
	PublishableKey string    `json:"publishable_key,omitempty" gorm:"size:255"`
	IsDefault      bool      `json:"is_default" gorm:"not null;default:false"`
	IsActive       bool      `json:"is_active" gorm:"not null;default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
