package config

import (
	"io"
	"text/tabwriter"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envVarPrefix = "creatorvault"

const usageListFormat = `The following environment variables override the config file:
{{range .}}
{{usage_key .}}
  description: {{usage_description .}}
  type:        {{usage_type .}}
{{end}}
`

// EnvOverrides are settings read from CREATORVAULT_* environment variables.
// Unset variables leave the file value alone.
type EnvOverrides struct {
	DatabaseType    string         `split_words:"true" desc:"Database type: sqlite, memory or postgres"`
	DatabaseDataDir string         `split_words:"true" desc:"Directory for the sqlite database file"`
	DatabaseDSN     string         `envconfig:"database_dsn" desc:"Postgres connection string"`
	JWTSecret       string         `envconfig:"jwt_secret" desc:"HS256 secret for bearer tokens"`
	Listen          string         `desc:"HTTP listen address"`
	GatewayURL      string         `envconfig:"gateway_url" desc:"Base URL for media links"`
	SuccessRate     *float64       `split_words:"true" desc:"Simulated payment success rate"`
	PaymentDelay    *time.Duration `split_words:"true" desc:"Simulated payment confirmation delay"`
	PaymentSeed     *uint64        `split_words:"true" desc:"Seed for the simulated gateway"`
	Balance         string         `desc:"Simulated wallet balance in ETH"`
	AllowFallback   *bool          `split_words:"true" desc:"Use the fallback identity for unauthenticated requests"`
	Timezone        string         `desc:"Time zone for today's earnings"`
}

// LoadEnvOverrides reads CREATORVAULT_* variables.
func LoadEnvOverrides() (*EnvOverrides, error) {
	var o EnvOverrides
	if err := envconfig.Process(envVarPrefix, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Apply copies every set override onto cfg.
func (o *EnvOverrides) Apply(cfg *Config) {
	setString(&cfg.Database.Type, o.DatabaseType)
	setString(&cfg.Database.DataDir, o.DatabaseDataDir)
	setString(&cfg.Database.DSN, o.DatabaseDSN)
	setString(&cfg.Auth.JWTSecret, o.JWTSecret)
	setString(&cfg.Server.Listen, o.Listen)
	setString(&cfg.Media.GatewayURL, o.GatewayURL)
	setString(&cfg.Payments.SimulatedBalance, o.Balance)
	setString(&cfg.Earnings.Timezone, o.Timezone)

	if o.SuccessRate != nil {
		rate := *o.SuccessRate
		cfg.Payments.SuccessRate = &rate
	}
	if o.PaymentDelay != nil {
		cfg.Payments.Delay = Duration{*o.PaymentDelay}
	}
	if o.PaymentSeed != nil {
		cfg.Payments.Seed = *o.PaymentSeed
	}
	if o.AllowFallback != nil {
		cfg.Auth.AllowFallback = *o.AllowFallback
	}
}

// ApplyEnv loads CREATORVAULT_* overrides onto cfg.
func ApplyEnv(cfg *Config) error {
	o, err := LoadEnvOverrides()
	if err != nil {
		return err
	}
	o.Apply(cfg)
	return nil
}

// WriteEnvUsage lists the supported override variables.
func WriteEnvUsage(w io.Writer) error {
	tabs := tabwriter.NewWriter(w, 1, 0, 4, ' ', 0)
	if err := envconfig.Usagef(envVarPrefix, &EnvOverrides{}, tabs, usageListFormat); err != nil {
		return err
	}
	return tabs.Flush()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
