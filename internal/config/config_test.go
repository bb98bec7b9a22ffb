package config

import (
	"os"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "FEE_PERCENT", "CUSTODY_ACCOUNT",
		"FEE_POOL_ACCOUNT", "JOURNAL_PATH", "REPLAY_INTERVAL",
		"WEBHOOK_TIMEOUT", "READ_TIMEOUT", "WRITE_TIMEOUT",
		"IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.FeePercent != 2 {
		t.Errorf("FeePercent = %d, want 2", cfg.FeePercent)
	}
	if cfg.CustodyAccount != "escrow" {
		t.Errorf("CustodyAccount = %q, want %q", cfg.CustodyAccount, "escrow")
	}
	if cfg.FeePoolAccount != "feepool" {
		t.Errorf("FeePoolAccount = %q, want %q", cfg.FeePoolAccount, "feepool")
	}
	if cfg.JournalPath != "" {
		t.Errorf("JournalPath = %q, want empty", cfg.JournalPath)
	}
	if cfg.ReplayInterval != 5*time.Second {
		t.Errorf("ReplayInterval = %v, want 5s", cfg.ReplayInterval)
	}
	if cfg.WebhookTimeout != 5*time.Second {
		t.Errorf("WebhookTimeout = %v, want 5s", cfg.WebhookTimeout)
	}
	if cfg.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v, want 5s", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout != 10*time.Second {
		t.Errorf("WriteTimeout = %v, want 10s", cfg.WriteTimeout)
	}
	if cfg.IdleTimeout != 60*time.Second {
		t.Errorf("IdleTimeout = %v, want 60s", cfg.IdleTimeout)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FEE_PERCENT", "5")
	t.Setenv("CUSTODY_ACCOUNT", "vault")
	t.Setenv("FEE_POOL_ACCOUNT", "treasury")
	t.Setenv("JOURNAL_PATH", "/var/lib/escrowd/journal")
	t.Setenv("REPLAY_INTERVAL", "500ms")
	t.Setenv("WEBHOOK_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.FeePercent != 5 {
		t.Errorf("FeePercent = %d, want 5", cfg.FeePercent)
	}
	if cfg.CustodyAccount != "vault" {
		t.Errorf("CustodyAccount = %q, want %q", cfg.CustodyAccount, "vault")
	}
	if cfg.FeePoolAccount != "treasury" {
		t.Errorf("FeePoolAccount = %q, want %q", cfg.FeePoolAccount, "treasury")
	}
	if cfg.JournalPath != "/var/lib/escrowd/journal" {
		t.Errorf("JournalPath = %q, want /var/lib/escrowd/journal", cfg.JournalPath)
	}
	if cfg.ReplayInterval != 500*time.Millisecond {
		t.Errorf("ReplayInterval = %v, want 500ms", cfg.ReplayInterval)
	}
	if cfg.WebhookTimeout != 3*time.Second {
		t.Errorf("WebhookTimeout = %v, want 3s", cfg.WebhookTimeout)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid PORT")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid LOG_LEVEL")
	}
}

func TestLoad_InvalidFeePercent(t *testing.T) {
	for _, v := range []string{"-1", "101", "two"} {
		t.Run(v, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("FEE_PERCENT", v)

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for FEE_PERCENT=%q", v)
			}
		})
	}
}

func TestLoad_CustodyFeePoolCollision(t *testing.T) {
	clearEnv(t)
	t.Setenv("CUSTODY_ACCOUNT", "shared")
	t.Setenv("FEE_POOL_ACCOUNT", "shared")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for colliding custody and fee pool accounts")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	keys := []string{
		"REPLAY_INTERVAL", "WEBHOOK_TIMEOUT", "READ_TIMEOUT",
		"WRITE_TIMEOUT", "IDLE_TIMEOUT", "SHUTDOWN_TIMEOUT",
	}

	for _, key := range keys {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, "not-a-duration")

			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for invalid %s", key)
			}
		})
	}
}
