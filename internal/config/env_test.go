package config

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestApplyEnv(t *testing.T) {
	t.Run("overrides set values", func(t *testing.T) {
		t.Setenv("CREATORVAULT_DATABASE_TYPE", "postgres")
		t.Setenv("CREATORVAULT_DATABASE_DSN", "postgres://localhost/cv")
		t.Setenv("CREATORVAULT_JWT_SECRET", "from-env")
		t.Setenv("CREATORVAULT_SUCCESS_RATE", "0.5")
		t.Setenv("CREATORVAULT_PAYMENT_DELAY", "10ms")
		t.Setenv("CREATORVAULT_PAYMENT_SEED", "7")
		t.Setenv("CREATORVAULT_ALLOW_FALLBACK", "true")
		t.Setenv("CREATORVAULT_BALANCE", "3")

		cfg := NewConfig("i", "/tmp/cv")
		if err := ApplyEnv(cfg); err != nil {
			t.Fatalf("ApplyEnv() error = %v", err)
		}

		if cfg.Database.Type != "postgres" {
			t.Errorf("Database.Type = %q, want postgres", cfg.Database.Type)
		}
		if cfg.Database.DSN != "postgres://localhost/cv" {
			t.Errorf("Database.DSN = %q, want postgres://localhost/cv", cfg.Database.DSN)
		}
		if cfg.Auth.JWTSecret != "from-env" {
			t.Errorf("Auth.JWTSecret = %q, want from-env", cfg.Auth.JWTSecret)
		}
		if cfg.Payments.Rate() != 0.5 {
			t.Errorf("Payments.Rate() = %v, want 0.5", cfg.Payments.Rate())
		}
		if cfg.Payments.Delay.Duration != 10*time.Millisecond {
			t.Errorf("Payments.Delay = %v, want 10ms", cfg.Payments.Delay)
		}
		if cfg.Payments.Seed != 7 {
			t.Errorf("Payments.Seed = %d, want 7", cfg.Payments.Seed)
		}
		if !cfg.Auth.AllowFallback {
			t.Error("Auth.AllowFallback = false, want true")
		}
		if cfg.Payments.SimulatedBalance != "3" {
			t.Errorf("Payments.SimulatedBalance = %q, want 3", cfg.Payments.SimulatedBalance)
		}
	})

	t.Run("unset values keep file config", func(t *testing.T) {
		cfg := NewConfig("i", "/tmp/cv")
		cfg.Server.Listen = ":7000"

		o := &EnvOverrides{}
		o.Apply(cfg)

		if cfg.Server.Listen != ":7000" {
			t.Errorf("Server.Listen = %q, want :7000", cfg.Server.Listen)
		}
		if cfg.Payments.SuccessRate != nil {
			t.Errorf("Payments.SuccessRate = %v, want nil", *cfg.Payments.SuccessRate)
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("CREATORVAULT_SUCCESS_RATE", "often")

		cfg := NewConfig("i", "/tmp/cv")
		if err := ApplyEnv(cfg); err == nil {
			t.Error("ApplyEnv() expected error for unparsable rate")
		}
	})
}

func TestWriteEnvUsage(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEnvUsage(&buf); err != nil {
		t.Fatalf("WriteEnvUsage() error = %v", err)
	}
	for _, key := range []string{"CREATORVAULT_JWT_SECRET", "CREATORVAULT_DATABASE_DSN", "CREATORVAULT_SUCCESS_RATE"} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("usage missing %s:\n%s", key, buf.String())
		}
	}
}
