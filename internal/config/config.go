// Package config loads the governance decision engine's configuration
// from environment variables (and an optional .env file), grouped into
// sub-structs the way the teacher's internal/config does.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration.
type Config struct {
	Server   ServerConfig
	Identity IdentityConfig
	Policy   PolicyConfig
	Ledger   LedgerConfig
	Decision DecisionConfig
	Logging  LoggingConfig
	Metrics  MetricsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// IdentityConfig holds signing-key settings.
type IdentityConfig struct {
	// SeedHex is a hex-encoded 32-byte Ed25519 seed. Empty means generate
	// a random key at startup (fine for a single process, useless across
	// restarts since old ledger entries stop verifying against a fresh
	// random key).
	SeedHex string
}

// PolicyConfig holds policy-loading settings.
type PolicyConfig struct {
	Path string
}

// LedgerConfig holds ledger storage and backpressure settings.
type LedgerConfig struct {
	DataDir    string
	MaxWaiters int
}

// DecisionConfig holds Decision Service tuning knobs.
type DecisionConfig struct {
	IdempotencyRetention time.Duration
}

// LoggingConfig holds structured-logging settings.
type LoggingConfig struct {
	Path string // empty logs to stdout
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from the environment, after loading a .env
// file in the working directory if one is present (godotenv.Load
// silently no-ops if the file is missing).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  time.Duration(getEnvInt("SERVER_READ_TIMEOUT_SEC", 10)) * time.Second,
			WriteTimeout: time.Duration(getEnvInt("SERVER_WRITE_TIMEOUT_SEC", 10)) * time.Second,
		},
		Identity: IdentityConfig{
			SeedHex: getEnv("SIGNING_KEY_SEED_HEX", ""),
		},
		Policy: PolicyConfig{
			Path: getEnv("POLICY_PATH", "configs/policy.yaml"),
		},
		Ledger: LedgerConfig{
			DataDir:    getEnv("LEDGER_DATA_DIR", "data/ledger"),
			MaxWaiters: getEnvInt("LEDGER_MAX_WAITERS", 64),
		},
		Decision: DecisionConfig{
			IdempotencyRetention: time.Duration(getEnvInt("IDEMPOTENCY_RETENTION_SEC", 600)) * time.Second,
		},
		Logging: LoggingConfig{
			Path: getEnv("LOG_PATH", ""),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
