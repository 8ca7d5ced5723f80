package creator

import (
	"context"
	"fmt"
	"time"

	"creatorvault/internal/model"
)

// TransactionFailed is the reason recorded when the gateway declines a payment.
const TransactionFailed = "Transaction failed"

// PurchaseRequest asks to unlock a premium content item.
type PurchaseRequest struct {
	ContentID string
	// Amount defaults to the content price when zero.
	Amount model.Amount
	// Recipient, when set, must match the content creator.
	Recipient      string
	Buyer          model.Identity
	IdempotencyKey string
}

// TipRequest asks to send a tip to a creator.
type TipRequest struct {
	CreatorAddress string
	Amount         model.Amount
	Message        string
	Sender         model.Identity
	IdempotencyKey string
}

// PaymentResult is the outcome of a purchase or tip.
// A declined payment has Success false and Error set; it is not a Go error.
type PaymentResult struct {
	Success  bool                  `json:"success"`
	TxHash   string                `json:"txHash,omitempty"`
	Error    string                `json:"error,omitempty"`
	Replayed bool                  `json:"replayed"`
	Payment  *model.Payment        `json:"payment"`
	Purchase *model.PurchaseRecord `json:"purchase,omitempty"`
	Tip      *model.TipRecord      `json:"tip,omitempty"`
}

// GetUserBalance returns the simulated wallet balance. It is a configured
// constant and is not derived from the ledger.
func (s *Service) GetUserBalance() model.Amount {
	return s.opts.Balance
}

// PurchaseContent pays for a premium item and, once the payment confirms,
// appends exactly one purchase record.
func (s *Service) PurchaseContent(ctx context.Context, req PurchaseRequest) (*PaymentResult, error) {
	if req.Buyer.IsAnonymous() {
		return nil, ErrUnauthenticated
	}

	item, err := s.GetVisible(req.ContentID, req.Buyer)
	if err != nil {
		return nil, err
	}
	if !item.IsPremium {
		return nil, fmt.Errorf("content %s: %w", item.ID, ErrNotPremium)
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = item.EffectivePrice()
	}
	if amount.Cmp(item.EffectivePrice()) < 0 {
		return nil, fmt.Errorf("%w: amount %s is below the price %s", ErrValidation, amount, item.EffectivePrice())
	}
	if req.Recipient != "" && !model.SameAddress(req.Recipient, item.CreatorAddress) {
		return nil, fmt.Errorf("%w: recipient does not match the content creator", ErrValidation)
	}

	payment := &model.Payment{
		Kind:             model.PaymentKindPurchase,
		IdempotencyKey:   req.IdempotencyKey,
		PayerAddress:     model.NormalizeAddress(req.Buyer.Address),
		RecipientAddress: item.CreatorAddress,
		ContentID:        item.ID,
		Amount:           amount,
	}
	return s.submit(ctx, payment)
}

// TipCreator sends a tip and, once the payment confirms, appends exactly one
// tip record.
func (s *Service) TipCreator(ctx context.Context, req TipRequest) (*PaymentResult, error) {
	if req.Sender.IsAnonymous() {
		return nil, ErrUnauthenticated
	}
	if req.CreatorAddress == "" {
		return nil, fmt.Errorf("%w: creator address is required", ErrValidation)
	}
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: tip amount must be positive", ErrValidation)
	}

	payment := &model.Payment{
		Kind:             model.PaymentKindTip,
		IdempotencyKey:   req.IdempotencyKey,
		PayerAddress:     model.NormalizeAddress(req.Sender.Address),
		RecipientAddress: model.NormalizeAddress(req.CreatorAddress),
		Amount:           req.Amount,
		Message:          req.Message,
	}
	return s.submit(ctx, payment)
}

// submit runs a payment through the state machine:
// pending -> confirmed (record appended) or pending -> failed.
func (s *Service) submit(ctx context.Context, payment *model.Payment) (*PaymentResult, error) {
	if payment.Amount.Cmp(s.opts.Balance) > 0 {
		return nil, fmt.Errorf("%w: amount %s exceeds balance %s", ErrInsufficientFunds, payment.Amount, s.opts.Balance)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("no payment gateway configured")
	}
	if payment.IdempotencyKey == "" {
		payment.IdempotencyKey = s.idgen.New()
	}

	// The settlement outlives any single caller; each caller waits on its own ctx.
	key := payment.PayerAddress + "\x00" + payment.IdempotencyKey
	ch := s.inflight.DoChan(key, func() (any, error) {
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.SettleTimeout)
		defer cancel()
		return s.settle(settleCtx, payment)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for payment: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*PaymentResult), nil
	}
}

func (s *Service) settle(ctx context.Context, draft *model.Payment) (*PaymentResult, error) {
	existing, err := s.database.FindPaymentByIdempotencyKey(draft.PayerAddress, draft.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("checking idempotency key: %w", err)
	}
	if existing != nil {
		if !existing.SameRequest(draft) {
			return nil, ErrIdempotencyConflict
		}
		result, err := s.resultFor(existing)
		if err != nil {
			return nil, err
		}
		result.Replayed = true
		s.logger.Debug("payment replayed", "payment", existing.ID, "status", existing.Status)
		return result, nil
	}

	now := s.clock.Now()
	payment := *draft
	payment.ID = s.idgen.New()
	payment.Status = model.PaymentPending
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if err := s.database.CreatePayment(&payment); err != nil {
		return nil, fmt.Errorf("recording pending payment: %w", err)
	}
	s.logger.Info("payment pending", "payment", payment.ID, "kind", payment.Kind, "amount", payment.Amount.String())

	settlement, err := s.gateway.Submit(ctx, &payment)
	if err != nil {
		if failErr := s.database.FailPayment(payment.ID, err.Error(), s.clock.Now()); failErr != nil {
			s.logger.Error("failed to record payment failure", "payment", payment.ID, "error", failErr)
		}
		s.logger.Warn("payment aborted", "payment", payment.ID, "error", err)
		return nil, fmt.Errorf("submitting payment: %w", err)
	}

	if !settlement.Confirmed {
		reason := settlement.Reason
		if reason == "" {
			reason = TransactionFailed
		}
		if err := s.database.FailPayment(payment.ID, reason, s.clock.Now()); err != nil {
			return nil, fmt.Errorf("recording failed payment: %w", err)
		}
		payment.Status = model.PaymentFailed
		payment.FailureReason = reason
		s.logger.Info("payment failed", "payment", payment.ID, "reason", reason)
		return &PaymentResult{Success: false, Error: reason, Payment: &payment}, nil
	}

	return s.confirm(&payment, settlement.TxHash)
}

func (s *Service) confirm(payment *model.Payment, txHash string) (*PaymentResult, error) {
	at := s.clock.Now()
	result := &PaymentResult{Success: true, TxHash: txHash, Payment: payment}

	switch payment.Kind {
	case model.PaymentKindPurchase:
		purchase := &model.PurchaseRecord{
			ID:           s.idgen.New(),
			ContentID:    payment.ContentID,
			Amount:       payment.Amount,
			TxHash:       txHash,
			Timestamp:    at,
			BuyerAddress: payment.PayerAddress,
			PaymentID:    payment.ID,
		}
		if err := s.database.ConfirmPurchase(payment.ID, txHash, at, purchase); err != nil {
			return nil, fmt.Errorf("confirming purchase: %w", err)
		}
		result.Purchase = purchase
	case model.PaymentKindTip:
		tip := &model.TipRecord{
			ID:             s.idgen.New(),
			CreatorAddress: payment.RecipientAddress,
			Amount:         payment.Amount,
			Message:        payment.Message,
			TxHash:         txHash,
			Timestamp:      at,
			SenderAddress:  payment.PayerAddress,
			PaymentID:      payment.ID,
		}
		if err := s.database.ConfirmTip(payment.ID, txHash, at, tip); err != nil {
			return nil, fmt.Errorf("confirming tip: %w", err)
		}
		result.Tip = tip
	default:
		return nil, fmt.Errorf("unknown payment kind %q", payment.Kind)
	}

	payment.Status = model.PaymentConfirmed
	payment.TxHash = txHash
	payment.UpdatedAt = at
	s.logger.Info("payment confirmed", "payment", payment.ID, "tx", txHash)
	return result, nil
}

// resultFor rebuilds the result of a payment that already settled.
func (s *Service) resultFor(payment *model.Payment) (*PaymentResult, error) {
	switch payment.Status {
	case model.PaymentPending:
		return nil, ErrPaymentInProgress
	case model.PaymentFailed:
		return &PaymentResult{Success: false, Error: payment.FailureReason, Payment: payment}, nil
	}

	result := &PaymentResult{Success: true, TxHash: payment.TxHash, Payment: payment}
	switch payment.Kind {
	case model.PaymentKindPurchase:
		purchase, err := s.database.FindPurchaseByPaymentID(payment.ID)
		if err != nil {
			return nil, fmt.Errorf("finding purchase: %w", err)
		}
		result.Purchase = purchase
	case model.PaymentKindTip:
		tip, err := s.database.FindTipByPaymentID(payment.ID)
		if err != nil {
			return nil, fmt.Errorf("finding tip: %w", err)
		}
		result.Tip = tip
	}
	return result, nil
}

// GetPayment returns a payment by id. Only the payer and the recipient may see it.
func (s *Service) GetPayment(id string, viewer model.Identity) (*model.Payment, error) {
	payment, err := s.database.FindPaymentByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding payment: %w", err)
	}
	if payment == nil {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	if !model.SameAddress(payment.PayerAddress, viewer.Address) && !model.SameAddress(payment.RecipientAddress, viewer.Address) {
		return nil, fmt.Errorf("payment %s: %w", id, ErrNotFound)
	}
	return payment, nil
}

// ListPurchases returns the buyer's purchases, newest first.
func (s *Service) ListPurchases(buyerAddress string) ([]*model.PurchaseRecord, error) {
	purchases, err := s.database.ListPurchasesByBuyer(model.NormalizeAddress(buyerAddress))
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	return purchases, nil
}

// ListTips returns tips received by the creator, newest first.
func (s *Service) ListTips(creatorAddress string) ([]*model.TipRecord, error) {
	tips, err := s.database.ListTipsForCreator(model.NormalizeAddress(creatorAddress))
	if err != nil {
		return nil, fmt.Errorf("listing tips: %w", err)
	}
	return tips, nil
}

// ReconcilePending fails payments that have been pending longer than maxAge.
// A crash between submission and settlement leaves a payment pending.
func (s *Service) ReconcilePending(maxAge time.Duration) (int64, error) {
	now := s.clock.Now()
	n, err := s.database.FailPendingPaymentsBefore(now.Add(-maxAge), "payment timed out", now)
	if err != nil {
		return 0, fmt.Errorf("reconciling pending payments: %w", err)
	}
	if n > 0 {
		s.logger.Warn("stale payments failed", "count", n)
	}
	return n, nil
}
