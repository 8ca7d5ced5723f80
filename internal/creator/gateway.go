package creator

import (
	"context"

	"creatorvault/internal/model"
)

// PaymentGateway settles a pending payment.
// Submit may block (network or simulated latency) and must honour ctx.
// A declined payment is reported through Settlement, not as an error;
// errors mean the outcome is unknown.
type PaymentGateway interface {
	Submit(ctx context.Context, payment *model.Payment) (*Settlement, error)
}

// Settlement is the gateway's verdict on a payment.
type Settlement struct {
	Confirmed bool
	TxHash    string
	Reason    string
}
