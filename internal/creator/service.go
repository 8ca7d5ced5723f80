package creator

import (
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"creatorvault/internal/model"
)

// HTMLSanitizer cleans user supplied markup before it is stored.
type HTMLSanitizer interface {
	Sanitize(html string) string
}

// Options holds the policy knobs of the service.
type Options struct {
	// Balance is the simulated wallet balance reported to every user.
	Balance model.Amount

	// DemoOwners are addresses treated as owners of every content item.
	// Empty unless explicitly configured.
	DemoOwners []string

	// Sanitizer, when set, is applied to content bodies and descriptions on save.
	Sanitizer HTMLSanitizer

	// Location defines "today" for earnings. Defaults to time.Local.
	Location *time.Location

	// GatewayURL prefixes media hashes to build public URLs.
	GatewayURL string

	// MaxUploadSize caps media uploads in bytes. Zero means no limit.
	MaxUploadSize int64

	// SettleTimeout bounds a single gateway settlement. Zero means
	// DefaultSettleTimeout.
	SettleTimeout time.Duration
}

// DefaultSettleTimeout is used when Options.SettleTimeout is unset.
const DefaultSettleTimeout = 2 * time.Minute

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Balance:       model.MustParseEther("1.0"),
		Location:      time.Local,
		MaxUploadSize: 50 << 20,
		SettleTimeout: DefaultSettleTimeout,
	}
}

// Service coordinates the content store, the payment ledger, the earnings
// aggregator and the media vault.
type Service struct {
	database  Database
	vault     Vault
	encryptor Encryptor
	gateway   PaymentGateway
	logger    Logger
	clock     Clock
	idgen     IDGenerator
	opts      Options

	// inflight collapses concurrent submissions of the same idempotency key.
	inflight singleflight.Group
}

// NewService creates a Service with the provided dependencies.
// vault, encryptor and gateway may be nil when the caller does not use media
// or payments; logger, clock and idgen fall back to no-op and real defaults.
func NewService(database Database, vault Vault, encryptor Encryptor, gateway PaymentGateway, logger Logger, clock Clock, idgen IDGenerator, opts Options) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = TimestampIDGenerator{Clock: clock}
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.SettleTimeout <= 0 {
		opts.SettleTimeout = DefaultSettleTimeout
	}
	return &Service{
		database:  database,
		vault:     vault,
		encryptor: encryptor,
		gateway:   gateway,
		logger:    logger,
		clock:     clock,
		idgen:     idgen,
		opts:      opts,
	}
}

// HealthCheck reports the status of each backing dependency.
// A nil error in the map means the dependency is healthy.
func (s *Service) HealthCheck() map[string]error {
	checks := map[string]error{
		"database": s.database.Ping(),
	}
	if s.vault != nil {
		checks["vault"] = s.vault.ValidateSetup()
	}
	return checks
}

// GetHistory returns the most recent operations, newest first.
func (s *Service) GetHistory(limit int) ([]*model.Operation, error) {
	ops, err := s.database.ListOperations(limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}
