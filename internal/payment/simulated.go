package payment

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// TransactionFailed is the reason attached to declined settlements.
const TransactionFailed = creator.TransactionFailed

// SimulatedGateway stands in for a chain. It waits Delay, then confirms with
// probability SuccessRate and fabricates a Keccak-256 transaction hash.
type SimulatedGateway struct {
	delay       time.Duration
	successRate float64

	mu    sync.Mutex
	rng   *rand.Rand
	nonce uint64
}

var _ creator.PaymentGateway = (*SimulatedGateway)(nil)

// NewSimulatedGateway creates a gateway. A zero seed draws one from the
// runtime so separate processes do not share outcomes.
func NewSimulatedGateway(delay time.Duration, successRate float64, seed uint64) *SimulatedGateway {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &SimulatedGateway{
		delay:       delay,
		successRate: successRate,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *SimulatedGateway) Submit(ctx context.Context, payment *model.Payment) (*creator.Settlement, error) {
	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, fmt.Errorf("payment %s: %w", payment.ID, ctx.Err())
		}
	} else if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("payment %s: %w", payment.ID, err)
	}

	g.mu.Lock()
	roll := g.rng.Float64()
	g.nonce++
	nonce := g.nonce
	g.mu.Unlock()

	if roll >= g.successRate {
		return &creator.Settlement{Reason: TransactionFailed}, nil
	}
	return &creator.Settlement{Confirmed: true, TxHash: txHash(payment.ID, nonce)}, nil
}

// txHash is keccak256(paymentID || big-endian nonce) in 0x-hex.
func txHash(paymentID string, nonce uint64) string {
	buf := make([]byte, 0, len(paymentID)+8)
	buf = append(buf, paymentID...)
	buf = binary.BigEndian.AppendUint64(buf, nonce)
	return crypto.Keccak256Hash(buf).Hex()
}
