// Package config holds the environment-driven settings for the
// flowsheet service.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/procflow/engine/internal/store"
)

// Config holds configuration settings for the flowsheet service
type Config struct {
	// API Server
	APIHost  string
	APIPort  int
	LogLevel string

	// Simulation backend
	BridgeURL     string
	BridgeTimeout time.Duration

	// Run report store
	Reports store.Options

	// Run report export
	ExportBucketURL string
	ExportPrefix    string

	ShutdownTimeout time.Duration
}

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultBridgeURL     = "http://localhost:9280"
	DefaultBridgeTimeout = 2 * time.Minute

	DefaultRedisEndpoint = "localhost:6379"
	DefaultRedisDB       = 0

	DefaultExportPrefix = "reports/"

	DefaultShutdownTimeout = 10 * time.Second
)

var (
	ErrInvalidAPIPort       = errors.New("invalid API port")
	ErrMissingBridgeURL     = errors.New("bridge URL must not be empty")
	ErrInvalidBridgeTimeout = errors.New("bridge timeout must be positive")
)

// NewDefaultConfig creates a configuration with sensible defaults for
// the server, backend bridge, and report store
func NewDefaultConfig() *Config {
	return &Config{
		APIPort:       DefaultAPIPort,
		APIHost:       DefaultAPIHost,
		LogLevel:      "info",
		BridgeURL:     DefaultBridgeURL,
		BridgeTimeout: DefaultBridgeTimeout,
		Reports: store.Options{
			Addr:     DefaultRedisEndpoint,
			Password: "",
			DB:       DefaultRedisDB,
			Prefix:   store.DefaultPrefix,
		},
		ExportPrefix:    DefaultExportPrefix,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed.
func (c *Config) LoadFromEnv() error {
	if apiHost := os.Getenv("API_HOST"); apiHost != "" {
		c.APIHost = apiHost
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.LogLevel = logLevel
	}
	if bridgeURL := os.Getenv("BRIDGE_URL"); bridgeURL != "" {
		c.BridgeURL = bridgeURL
	}
	if bucketURL := os.Getenv("EXPORT_BUCKET_URL"); bucketURL != "" {
		c.ExportBucketURL = bucketURL
	}
	if prefix := os.Getenv("EXPORT_PREFIX"); prefix != "" {
		c.ExportPrefix = prefix
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Reports.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Reports.Password = password
	}
	if prefix := os.Getenv("REDIS_PREFIX"); prefix != "" {
		c.Reports.Prefix = prefix
	}

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt("REDIS_DB", &c.Reports.DB, -1, 15); err != nil {
		return err
	}

	if err := loadEnvDuration("BRIDGE_TIMEOUT", &c.BridgeTimeout); err != nil {
		return err
	}
	return loadEnvDuration("SHUTDOWN_TIMEOUT", &c.ShutdownTimeout)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}
	if c.BridgeURL == "" {
		return ErrMissingBridgeURL
	}
	if c.BridgeTimeout <= 0 {
		return ErrInvalidBridgeTimeout
	}
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer,
// and sets *dst if the value is in the range (min, max). Returns an
// error if the value cannot be parsed or falls outside the valid range.
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}

// loadEnvDuration reads key from the environment and parses it with
// time.ParseDuration, requiring a positive result
func loadEnvDuration(key string, dst *time.Duration) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	if v <= 0 {
		return fmt.Errorf("invalid %s: must be positive", key)
	}
	*dst = v
	return nil
}
