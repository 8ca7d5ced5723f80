package apperrors

// Error codes - organized by domain

// Authentication errors (AUTH_*)
const (
	ErrCodeAuthRequired   = "AUTH_REQUIRED"
	ErrCodeTokenExpired   = "AUTH_TOKEN_EXPIRED"
	ErrCodeTokenInvalid   = "AUTH_TOKEN_INVALID"
	ErrCodeTokenMalformed = "AUTH_TOKEN_MALFORMED"
)

// Authorization errors (AUTHZ_*)
const (
	ErrCodeNotOwner    = "AUTHZ_NOT_OWNER"
	ErrCodeMediaLocked = "AUTHZ_MEDIA_LOCKED"
)

// Validation errors (VALIDATION_*)
const (
	ErrCodeValidationFailed = "VALIDATION_FAILED"
	ErrCodeInvalidInput     = "VALIDATION_INVALID_INPUT"
	ErrCodeNotPremium       = "VALIDATION_NOT_PREMIUM"
	ErrCodeUploadTooLarge   = "VALIDATION_UPLOAD_TOO_LARGE"
)

// Resource errors (RESOURCE_*)
const (
	ErrCodeNotFound = "RESOURCE_NOT_FOUND"
)

// Payment errors (PAYMENT_*)
const (
	ErrCodeInsufficientFunds   = "PAYMENT_INSUFFICIENT_FUNDS"
	ErrCodePaymentInProgress   = "PAYMENT_IN_PROGRESS"
	ErrCodeIdempotencyConflict = "PAYMENT_IDEMPOTENCY_CONFLICT"
	ErrCodePaymentAborted      = "PAYMENT_ABORTED"
)

// Internal errors (INTERNAL_*)
const (
	ErrCodeUnexpectedError = "INTERNAL_UNEXPECTED_ERROR"
)
