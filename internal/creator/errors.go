package creator

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrNotOwner            = errors.New("viewer does not own this content")
	ErrValidation          = errors.New("validation failed")
	ErrNotPremium          = errors.New("content is not premium")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrPaymentInProgress   = errors.New("payment is still pending")
	ErrIdempotencyConflict = errors.New("idempotency key already used for a different payment")
	ErrMediaLocked         = errors.New("media is encrypted and no decryption key is unlocked")
	ErrUnauthenticated     = errors.New("identity required")
)
