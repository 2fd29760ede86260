package dto

import (
	"time"

	"circular-storefront/internal/model"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// ---- orders ----

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
	// Version enables the optimistic-concurrency check; 0 skips it.
	Version int `json:"version" validate:"gte=0"`
}

type UpdateStatusResponse struct {
	Order        *model.Order `json:"order"`
	Notification string       `json:"notification"`
	Warning      string       `json:"warning,omitempty"`
}

type UpdateTrackingRequest struct {
	TrackingNumber        *string    `json:"tracking_number" validate:"omitempty,max=128"`
	TrackingCarrier       *string    `json:"tracking_carrier" validate:"omitempty,max=64"`
	EstimatedDeliveryDate *time.Time `json:"estimated_delivery_date"`
	AdminNotes            *string    `json:"admin_notes" validate:"omitempty,max=4000"`
}

type TrackOrderRequest struct {
	OrderID string `query:"order_id" validate:"required"`
	Email   string `query:"email" validate:"required,email"`
}

// ---- newsletter ----

type SubscribeRequest struct {
	Email  string `json:"email" validate:"required,email,max=255"`
	Name   string `json:"name" validate:"max=255"`
	Source string `json:"source" validate:"max=64"`
}

type UnsubscribeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ---- roles ----

type AssignRoleRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Role   string `json:"role" validate:"required,oneof=admin moderator"`
}

// ---- payment configurations ----

type CreatePaymentConfigRequest struct {
	Provider       string `json:"provider" validate:"required,oneof=stripe mobile_money"`
	DisplayName    string `json:"display_name" validate:"required,max=128"`
	PublishableKey string `json:"publishable_key" validate:"max=255"`
	IsDefault      bool   `json:"is_default"`
}

// ---- chat ----

type SendMessageRequest struct {
	RecipientID *string `json:"recipient_id" validate:"omitempty,max=64"`
	Content     string  `json:"content" validate:"required,max=4000"`
}

// ---- integrations ----

type SendEmailRequest struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=255"`
	HTML    string `json:"html" validate:"required"`
}

type SendCampaignRequest struct {
	Subject string `json:"subject" validate:"required,max=255"`
	HTML    string `json:"html" validate:"required"`
	ReplyTo string `json:"reply_to" validate:"omitempty,email"`
}
