package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the escrow exchange.
type Config struct {
	Port            int
	LogLevel        string
	FeePercent      int64
	CustodyAccount  string
	FeePoolAccount  string
	JournalPath     string // empty means an in-memory journal
	ReplayInterval  time.Duration
	WebhookTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies defaults,
// and validates values. It returns an error for any invalid value.
func Load() (*Config, error) {
	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	feePercent, err := getInt("FEE_PERCENT", 2)
	if err != nil {
		return nil, fmt.Errorf("invalid FEE_PERCENT: %w", err)
	}
	if feePercent < 0 || feePercent > 100 {
		return nil, fmt.Errorf("invalid FEE_PERCENT: %d, must be between 0 and 100", feePercent)
	}

	custodyAccount := getStr("CUSTODY_ACCOUNT", "escrow")
	feePoolAccount := getStr("FEE_POOL_ACCOUNT", "feepool")
	if custodyAccount == feePoolAccount {
		return nil, fmt.Errorf("CUSTODY_ACCOUNT and FEE_POOL_ACCOUNT must differ, both are %q", custodyAccount)
	}

	journalPath := getStr("JOURNAL_PATH", "")

	replayInterval, err := getDuration("REPLAY_INTERVAL", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid REPLAY_INTERVAL: %w", err)
	}

	webhookTimeout, err := getDuration("WEBHOOK_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WEBHOOK_TIMEOUT: %w", err)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}

	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}

	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Port:            port,
		LogLevel:        logLevel,
		FeePercent:      int64(feePercent),
		CustodyAccount:  custodyAccount,
		FeePoolAccount:  feePoolAccount,
		JournalPath:     journalPath,
		ReplayInterval:  replayInterval,
		WebhookTimeout:  webhookTimeout,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
