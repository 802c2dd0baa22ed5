package error

import "errors"

// Notification producer errors.
var (
	ErrMissingRecipient  = errors.New("recipient is required")
	ErrTooManyRecipients = errors.New("too many recipients")
	ErrMissingSubject    = errors.New("subject is required")
	ErrMissingContent    = errors.New("content is required")
	ErrInvalidListing    = errors.New("invalid listing")

	// ErrCampaignNotFound is returned when a campaign does not exist.
	ErrCampaignNotFound = errors.New("campaign not found")
)

// NotificationErrorCode defines error codes for producer validation.
type NotificationErrorCode string

const (
	ErrCodeMissingRecipient  NotificationErrorCode = "NOTIFY-010001"
	ErrCodeTooManyRecipients NotificationErrorCode = "NOTIFY-010002"
	ErrCodeMissingSubject    NotificationErrorCode = "NOTIFY-010003"
	ErrCodeMissingContent    NotificationErrorCode = "NOTIFY-010004"
	ErrCodeInvalidListing    NotificationErrorCode = "NOTIFY-010005"
	ErrCodeInvalidAddress    NotificationErrorCode = "NOTIFY-010006"

	ErrCodeCampaignNotFound NotificationErrorCode = "NOTIFY-020001"
)

// NotificationError represents a producer input error.
type NotificationError struct {
	Code    NotificationErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *NotificationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *NotificationError) Unwrap() error {
	return e.Err
}

// NewNotificationError creates a new NotificationError.
func NewNotificationError(code NotificationErrorCode, message string, err error) *NotificationError {
	return &NotificationError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}
