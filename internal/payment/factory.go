package payment

import (
	"fmt"

	"creatorvault/internal/config"
	"creatorvault/internal/creator"
)

// NewGatewayFromConfig creates a PaymentGateway based on the configuration type.
func NewGatewayFromConfig(cfg config.PaymentsConfig) (creator.PaymentGateway, error) {
	switch cfg.Type {
	case "simulated", "":
		rate := cfg.Rate()
		if rate < 0 || rate > 1 {
			return nil, fmt.Errorf("success_rate must be between 0 and 1, got %v", rate)
		}
		return NewSimulatedGateway(cfg.Delay.Duration, rate, cfg.Seed), nil
	default:
		return nil, fmt.Errorf("unknown payments type: %q", cfg.Type)
	}
}
