package entity

import "errors"

var (
	// Validation errors
	ErrValidation       = errors.New("validation failed")
	ErrEmptyTitle       = errors.New("title and message are required")
	ErrEmptyContent     = errors.New("message content is required")
	ErrInvalidSpec      = errors.New("invalid recipient spec")
	ErrEmptyZone        = errors.New("target zone is required for zone recipients")
	ErrEmptyRecipients  = errors.New("specific recipients are required for specific recipients type")
	ErrScheduleTimePast = errors.New("schedule time must be in the future")

	// Resolution errors
	ErrRecipientResolution = errors.New("recipient resolution failed")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized to broadcast messages")

	// Lookup errors
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrUserNotFound         = errors.New("user not found")

	// Scheduling errors
	ErrNotCancellable = errors.New("notification cannot be cancelled")
)
