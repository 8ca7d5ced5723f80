package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"

	"creatorvault/internal/model"
)

// Config represents the main configuration for creatorvault.
type Config struct {
	InstanceID string           `toml:"instance_id"`
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Vaults     []VaultConfig    `toml:"vaults"`
	Encryption EncryptionConfig `toml:"encryption"`
	Database   DatabaseConfig   `toml:"database"`
	Payments   PaymentsConfig   `toml:"payments"`
	Auth       AuthConfig       `toml:"auth"`
	Server     ServerConfig     `toml:"server"`
	Media      MediaConfig      `toml:"media"`
	Earnings   EarningsConfig   `toml:"earnings"`
}

// EncryptionConfig holds paths to the age key pair used for premium media.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "age" (default) or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// VaultConfig represents configuration for a vault backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type"` // "memory", "s3", or "filesystem"
	Name string `toml:"name"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket   string `toml:"s3_bucket,omitempty"`
	S3Prefix   string `toml:"s3_prefix,omitempty"`
	S3Region   string `toml:"s3_region,omitempty"`
	S3Endpoint string `toml:"s3_endpoint,omitempty"` // S3-compatible servers such as MinIO

	// Static credentials; the default AWS chain is used when empty.
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty"`
}

// DatabaseConfig represents configuration for the content and ledger database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "memory" or "postgres"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DSN     string `toml:"dsn,omitempty"`      // only used for type=postgres
}

// PaymentsConfig configures the payment gateway and the pending-payment reconciler.
type PaymentsConfig struct {
	Type string `toml:"type"` // "simulated"

	// SuccessRate is the probability a simulated payment confirms. Nil means 0.9.
	SuccessRate      *float64 `toml:"success_rate,omitempty"`
	Delay            Duration `toml:"delay"`
	Seed             uint64   `toml:"seed,omitempty"` // 0 picks a random seed
	SimulatedBalance string   `toml:"simulated_balance"`

	ReconcileSchedule string   `toml:"reconcile_schedule"` // cron spec, server mode only
	PendingTimeout    Duration `toml:"pending_timeout"`
}

// DefaultSuccessRate is used when PaymentsConfig.SuccessRate is unset.
const DefaultSuccessRate = 0.9

// Rate returns the configured success rate or DefaultSuccessRate.
func (p PaymentsConfig) Rate() float64 {
	if p.SuccessRate == nil {
		return DefaultSuccessRate
	}
	return *p.SuccessRate
}

// AuthConfig configures bearer tokens and the fallback identity.
type AuthConfig struct {
	JWTSecret       string   `toml:"jwt_secret"`
	TokenTTL        Duration `toml:"token_ttl"`
	AllowFallback   bool     `toml:"allow_fallback"`
	FallbackAddress string   `toml:"fallback_address,omitempty"`
	FallbackName    string   `toml:"fallback_name,omitempty"`

	// DemoOwnerAddresses are treated as owners of every content item.
	DemoOwnerAddresses []string `toml:"demo_owner_addresses,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen       string `toml:"listen"`
	SanitizeHTML bool   `toml:"sanitize_html"`
}

// MediaConfig configures media uploads.
type MediaConfig struct {
	GatewayURL    string `toml:"gateway_url,omitempty"`
	MaxUploadSize int64  `toml:"max_upload_size"`
}

// EarningsConfig configures earnings reporting.
type EarningsConfig struct {
	// Timezone decides which calendar day counts as today. Empty means the
	// process local zone.
	Timezone string `toml:"timezone,omitempty"`
}

// Location loads the configured time zone.
func (e EarningsConfig) Location() (*time.Location, error) {
	if e.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid earnings timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// Duration is a time.Duration written as a string ("2s", "10m") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// NewConfig creates a new Config with the provided values and defaults for
// every section.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID: instanceID,
		BaseDir:    baseDir,
		LogDir:     filepath.Join(baseDir, "log"),
		Vaults: []VaultConfig{
			{Type: "filesystem", Name: "local", FSVaultRoot: filepath.Join(baseDir, "vault")},
		},
		Encryption: EncryptionConfig{
			Type:           "age",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "creatorvault.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "creatorvault.key"),
		},
		Database: DatabaseConfig{Type: "sqlite", DataDir: filepath.Join(baseDir, "db")},
		Payments: PaymentsConfig{
			Type:              "simulated",
			Delay:             Duration{2 * time.Second},
			SimulatedBalance:  "1.0",
			ReconcileSchedule: "@every 5m",
			PendingTimeout:    Duration{10 * time.Minute},
		},
		Auth: AuthConfig{
			TokenTTL: Duration{24 * time.Hour},
		},
		Server: ServerConfig{
			Listen:       ":8080",
			SanitizeHTML: true,
		},
		Media: MediaConfig{
			MaxUploadSize: 50 << 20,
		},
	}
}

// Validate checks values that would otherwise fail deep inside the app.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "memory", "postgres":
	default:
		return fmt.Errorf("unknown database type: %s", c.Database.Type)
	}

	switch c.Payments.Type {
	case "", "simulated":
	default:
		return fmt.Errorf("unknown payments type: %s", c.Payments.Type)
	}
	if rate := c.Payments.Rate(); rate < 0 || rate > 1 {
		return fmt.Errorf("payments.success_rate must be between 0 and 1, got %v", rate)
	}
	if c.Payments.SimulatedBalance != "" {
		if _, err := model.ParseEther(c.Payments.SimulatedBalance); err != nil {
			return fmt.Errorf("payments.simulated_balance: %w", err)
		}
	}
	if c.Payments.ReconcileSchedule != "" {
		if _, err := cron.ParseStandard(c.Payments.ReconcileSchedule); err != nil {
			return fmt.Errorf("payments.reconcile_schedule %q: %w", c.Payments.ReconcileSchedule, err)
		}
	}

	if _, err := c.Earnings.Location(); err != nil {
		return err
	}
	if c.Media.MaxUploadSize < 0 {
		return fmt.Errorf("media.max_upload_size must not be negative")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file can carry the JWT secret.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
