package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "WalletGrid"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultIdemTTL       = 24 * time.Hour
	defaultLedgerTimeout = 5 * time.Second
	defaultScatterRowCap = 500
	defaultMaxPageSize   = 100

	idemTTLSecondsEnvVar  = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar      = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurEnvVar     = "SHUTDOWN_TIMEOUT"
	ledgerSecondsEnvVar   = "LEDGER_TIMEOUT_SECONDS"
	ledgerDurEnvVar       = "LEDGER_TIMEOUT"
	scatterRowCapEnvVar   = "SCATTER_ROW_CAP"
	maxPageSizeEnvVar     = "MAX_PAGE_SIZE"
)

// Config captures application runtime configuration loaded from environment
// variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// LedgerTimeout bounds each per-ledger call during scatter reads and
	// bulk mutations. The aggregate latency of a fan-out operation is
	// bounded by the slowest ledger, not the sum.
	LedgerTimeout time.Duration
	// ScatterRowCap bounds unbounded per-ledger fetches under scatter.
	ScatterRowCap int
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize int
}

// Load reads configuration values from the environment and populates a Config
// instance. DATABASE_URL and REDIS_URL are required outside development; in
// development the service falls back to in-memory backends.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdemTTL,
		LedgerTimeout:  defaultLedgerTimeout,
		ScatterRowCap:  defaultScatterRowCap,
		MaxPageSize:    defaultMaxPageSize,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.LedgerTimeout, err = durationEnv(ledgerSecondsEnvVar, ledgerDurEnvVar, cfg.LedgerTimeout); err != nil {
		return Config{}, err
	}

	if v := os.Getenv(scatterRowCapEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return Config{}, fmt.Errorf("invalid %s: %q", scatterRowCapEnvVar, v)
		}
		cfg.ScatterRowCap = n
	}
	if v := os.Getenv(maxPageSizeEnvVar); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil || size < 1 {
			return Config{}, fmt.Errorf("invalid %s: %q", maxPageSizeEnvVar, v)
		}
		cfg.MaxPageSize = size
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the configured environment is a development one.
func (c Config) IsDev() bool {
	switch c.AppEnv {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads a duration either as whole seconds or as a Go duration
// string, preferring the seconds variant, matching the deployment tooling.
func durationEnv(secondsVar, durVar string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsVar, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durVar, err)
		}
		return d, nil
	}
	return fallback, nil
}
