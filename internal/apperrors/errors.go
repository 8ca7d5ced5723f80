package apperrors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"

	"creatorvault/internal/auth"
	"creatorvault/internal/creator"
)

// AppError represents a structured application error
type AppError struct {
	Code       string `json:"code"`             // Machine-readable error code
	Message    string `json:"message"`          // Human-readable message
	Detail     string `json:"detail,omitempty"` // Additional details
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Original error
	Stack      string `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds detail to the error
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithErr attaches the underlying error.
func (e *AppError) WithErr(err error) *AppError {
	e.Err = err
	return e
}

func newError(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

func NewBadRequest(code, message string) *AppError {
	return newError(http.StatusBadRequest, code, message)
}

func NewUnauthorized(code, message string) *AppError {
	return newError(http.StatusUnauthorized, code, message)
}

func NewPaymentRequired(code, message string) *AppError {
	return newError(http.StatusPaymentRequired, code, message)
}

func NewForbidden(code, message string) *AppError {
	return newError(http.StatusForbidden, code, message)
}

func NewNotFound(code, message string) *AppError {
	return newError(http.StatusNotFound, code, message)
}

func NewConflict(code, message string) *AppError {
	return newError(http.StatusConflict, code, message)
}

func NewRequestTooLarge(code, message string) *AppError {
	return newError(http.StatusRequestEntityTooLarge, code, message)
}

// NewInternal creates a 500 error and captures the stack for the log.
func NewInternal(code, message string, err error) *AppError {
	e := newError(http.StatusInternalServerError, code, message)
	e.Err = err
	e.Stack = getStack()
	return e
}

// NewServiceUnavailable creates a 503 error.
func NewServiceUnavailable(code, message string, err error) *AppError {
	e := newError(http.StatusServiceUnavailable, code, message)
	e.Err = err
	return e
}

func getStack() string {
	buf := make([]byte, 4096)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// AsAppError finds an AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// FromError maps service and auth errors onto an AppError. Errors it does
// not recognise become 500s.
func FromError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	var e *AppError
	switch {
	case errors.Is(err, creator.ErrNotFound):
		e = NewNotFound(ErrCodeNotFound, "Resource not found")
	case errors.Is(err, creator.ErrNotOwner):
		e = NewForbidden(ErrCodeNotOwner, "You do not own this content")
	case errors.Is(err, creator.ErrMediaLocked):
		e = NewForbidden(ErrCodeMediaLocked, "Media is encrypted and the server holds no decryption key")
	case errors.Is(err, creator.ErrValidation):
		e = NewBadRequest(ErrCodeValidationFailed, "Validation failed")
	case errors.Is(err, creator.ErrNotPremium):
		e = NewBadRequest(ErrCodeNotPremium, "Content is not premium")
	case errors.Is(err, creator.ErrPaymentInProgress):
		e = NewConflict(ErrCodePaymentInProgress, "A payment with this idempotency key is still pending")
	case errors.Is(err, creator.ErrIdempotencyConflict):
		e = NewConflict(ErrCodeIdempotencyConflict, "Idempotency key already used for a different payment")
	case errors.Is(err, creator.ErrInsufficientFunds):
		e = NewPaymentRequired(ErrCodeInsufficientFunds, "Insufficient funds")
	case errors.Is(err, creator.ErrUnauthenticated):
		e = NewUnauthorized(ErrCodeAuthRequired, "Authentication required")
	case errors.Is(err, auth.ErrTokenExpired):
		e = NewUnauthorized(ErrCodeTokenExpired, "Token expired")
	case errors.Is(err, auth.ErrInvalidToken):
		e = NewUnauthorized(ErrCodeTokenInvalid, "Invalid token")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return NewServiceUnavailable(ErrCodePaymentAborted, "Request was cancelled before it completed", err)
	default:
		return NewInternal(ErrCodeUnexpectedError, "An unexpected error occurred", err)
	}

	e.Err = err
	e.Detail = err.Error()
	return e
}
