package model

import "time"

// PaymentKind distinguishes content purchases from tips.
type PaymentKind string

const (
	PaymentKindPurchase PaymentKind = "purchase"
	PaymentKindTip      PaymentKind = "tip"
)

// PaymentStatus is the settlement state of a payment.
// A payment starts pending and moves exactly once to confirmed or failed.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is a submission to the payment gateway, keyed by payer and
// idempotency key.
type Payment struct {
	ID               string        `db:"id" json:"id"`
	Kind             PaymentKind   `db:"kind" json:"kind"`
	IdempotencyKey   string        `db:"idempotency_key" json:"idempotencyKey"`
	PayerAddress     string        `db:"payer_address" json:"payerAddress"`
	RecipientAddress string        `db:"recipient_address" json:"recipientAddress"`
	ContentID        string        `db:"content_id" json:"contentId,omitempty"`
	Amount           Amount        `db:"amount" json:"amount"`
	Message          string        `db:"message" json:"message,omitempty"`
	Status           PaymentStatus `db:"status" json:"status"`
	TxHash           string        `db:"tx_hash" json:"txHash,omitempty"`
	FailureReason    string        `db:"failure_reason" json:"failureReason,omitempty"`
	CreatedAt        time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time     `db:"updated_at" json:"updatedAt"`
}

// SameRequest reports whether p and other describe the same transfer.
// Used to reject idempotency key reuse for a different payment.
func (p *Payment) SameRequest(other *Payment) bool {
	return p.Kind == other.Kind &&
		p.ContentID == other.ContentID &&
		SameAddress(p.RecipientAddress, other.RecipientAddress) &&
		p.Amount.Equal(other.Amount)
}

// PurchaseRecord is evidence that a buyer unlocked a content item.
type PurchaseRecord struct {
	ID           string    `db:"id" json:"id"`
	ContentID    string    `db:"content_id" json:"contentId"`
	Amount       Amount    `db:"amount" json:"amount"`
	TxHash       string    `db:"tx_hash" json:"txHash"`
	Timestamp    time.Time `db:"paid_at" json:"timestamp"`
	BuyerAddress string    `db:"buyer_address" json:"buyerAddress"`
	PaymentID    string    `db:"payment_id" json:"paymentId,omitempty"`
}

// TipRecord is a voluntary payment to a creator, not tied to content.
type TipRecord struct {
	ID             string    `db:"id" json:"id"`
	CreatorAddress string    `db:"creator_address" json:"creatorAddress"`
	Amount         Amount    `db:"amount" json:"amount"`
	Message        string    `db:"message" json:"message,omitempty"`
	TxHash         string    `db:"tx_hash" json:"txHash"`
	Timestamp      time.Time `db:"paid_at" json:"timestamp"`
	SenderAddress  string    `db:"sender_address" json:"senderAddress"`
	PaymentID      string    `db:"payment_id" json:"paymentId,omitempty"`
}
