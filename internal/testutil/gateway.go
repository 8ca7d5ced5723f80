package testutil

import (
	"context"
	"fmt"
	"sync"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// StubGateway settles payments from a script. Each Submit pops the next
// queued outcome; when the queue is empty every payment confirms.
// Safe for concurrent use.
type StubGateway struct {
	mu       sync.Mutex
	outcomes []stubOutcome
	calls    []*model.Payment

	// Block, when non-nil, is read before each Submit returns so tests can
	// hold a payment in flight.
	Block chan struct{}
}

type stubOutcome struct {
	settlement *creator.Settlement
	err        error
}

var _ creator.PaymentGateway = (*StubGateway)(nil)

func NewStubGateway() *StubGateway {
	return &StubGateway{}
}

// QueueConfirm queues a confirmed settlement with the given tx hash.
func (g *StubGateway) QueueConfirm(txHash string) {
	g.queue(stubOutcome{settlement: &creator.Settlement{Confirmed: true, TxHash: txHash}})
}

// QueueDecline queues a declined settlement.
func (g *StubGateway) QueueDecline(reason string) {
	g.queue(stubOutcome{settlement: &creator.Settlement{Reason: reason}})
}

// QueueError queues a gateway error, meaning the outcome is unknown.
func (g *StubGateway) QueueError(err error) {
	g.queue(stubOutcome{err: err})
}

func (g *StubGateway) queue(o stubOutcome) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes = append(g.outcomes, o)
}

func (g *StubGateway) Submit(ctx context.Context, payment *model.Payment) (*creator.Settlement, error) {
	g.mu.Lock()
	cp := *payment
	g.calls = append(g.calls, &cp)
	var next stubOutcome
	if len(g.outcomes) > 0 {
		next = g.outcomes[0]
		g.outcomes = g.outcomes[1:]
	} else {
		next = stubOutcome{settlement: &creator.Settlement{Confirmed: true, TxHash: fmt.Sprintf("0xstub%d", len(g.calls))}}
	}
	block := g.Block
	g.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return next.settlement, next.err
}

// Calls returns copies of every payment submitted so far.
func (g *StubGateway) Calls() []*model.Payment {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*model.Payment(nil), g.calls...)
}
