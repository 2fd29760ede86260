package service

import "errors"

var (
	ErrInvalidStatus  = errors.New("invalid order status")
	ErrInvalidContent = errors.New("invalid content")
	ErrInvalidEmail   = errors.New("invalid email address")
	ErrValidation     = errors.New("validation failed")

	ErrDuplicateRole        = errors.New("role already assigned")
	ErrDefaultPaymentConfig = errors.New("cannot delete the default payment configuration")
	ErrTransitionNotAllowed = errors.New("status transition not allowed")
	ErrVersionConflict      = errors.New("order was modified by someone else")

	ErrOrderNotFound = errors.New("order not found")
	ErrNotFound      = errors.New("not found")

	ErrInvalidSignature = errors.New("invalid webhook signature")

	ErrUpstream = errors.New("upstream service error")
)
