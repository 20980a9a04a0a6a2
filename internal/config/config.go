// Package config provides configuration loading and management for the enrollment server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables used by the application.
const EnvPrefix = "ATTENDLY"

const (
	// DefaultScanInterval is the scheduler interval used when none is configured
	DefaultScanInterval = time.Hour

	// defaultListenAddress is the HTTP listen address used when none is configured
	defaultListenAddress = ":8080"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Server holds the HTTP server settings
	Server ServerConfig `yaml:"server,omitempty"`

	// Scheduler holds the reconciliation scheduler settings
	Scheduler SchedulerConfig `yaml:"scheduler,omitempty"`

	// Sequence holds the external marketing-sequence API settings
	Sequence SequenceConfig `yaml:"sequence"`

	// Database holds the Postgres connection settings
	Database *DatabaseConfig `yaml:"database,omitempty"`

	// Telemetry holds the optional metrics export settings
	Telemetry TelemetryConfig `yaml:"telemetry,omitempty"`
}

// TelemetryConfig defines OpenTelemetry metrics export settings
type TelemetryConfig struct {
	// Endpoint is the OTLP HTTP endpoint, e.g. "otel-collector:4318".
	// Metrics are disabled when empty.
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure disables TLS for the OTLP exporter
	Insecure bool `yaml:"insecure,omitempty"`
}

// ServerConfig defines HTTP server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address,omitempty"`
}

// SchedulerConfig defines reconciliation scheduler settings
type SchedulerConfig struct {
	// Interval is the scan interval as a Go duration string (e.g. "1h", "30m")
	Interval string `yaml:"interval,omitempty"`
}

// SequenceConfig defines the external sequence API endpoints and credentials
type SequenceConfig struct {
	// TokenURL is the endpoint used to obtain short-lived access tokens
	TokenURL string `yaml:"tokenUrl"`

	// ContactURL is the endpoint used to enroll contacts into a sequence
	ContactURL string `yaml:"contactUrl"`

	// APIKeyFile is the path to a file containing the static API key.
	// This is the recommended approach for production deployments.
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	// Host is the database server hostname or IP address
	Host string `yaml:"host"`

	// Port is the database server port
	Port int `yaml:"port"`

	// User is the database username
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// The file should contain only the password with optional trailing whitespace.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	// Database is the database name
	Database string `yaml:"database"`

	// SSLMode is the SSL mode for the connection (disable, require, verify-ca, verify-full)
	SSLMode string `yaml:"sslMode,omitempty"`

	// MaxConns is the maximum number of connections in the pool
	MaxConns int32 `yaml:"maxConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// GetAPIKey returns the sequence API key using the following priority:
// 1. Read from APIKeyFile if specified
// 2. Read from ATTENDLY_SEQUENCE_API_KEY environment variable
//
// The key from file will have leading/trailing whitespace trimmed.
func (s *SequenceConfig) GetAPIKey() (string, error) {
	if s.APIKeyFile != "" {
		cleanPath := filepath.Clean(s.APIKeyFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read API key from file %s: %w", s.APIKeyFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envKey := os.Getenv(EnvPrefix + "_SEQUENCE_API_KEY"); envKey != "" {
		return envKey, nil
	}

	return "", fmt.Errorf(
		"no sequence API key configured: set apiKeyFile or %s_SEQUENCE_API_KEY environment variable", EnvPrefix,
	)
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from ATTENDLY_DATABASE_PASSWORD environment variable
//
// The password from file will have leading/trailing whitespace trimmed.
func (d *DatabaseConfig) GetPassword() (string, error) {
	if d.PasswordFile != "" {
		// Use filepath.Clean to prevent path traversal attacks
		cleanPath := filepath.Clean(d.PasswordFile)

		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to read password from file %s: %w", d.PasswordFile, err)
		}

		return strings.TrimSpace(string(data)), nil
	}

	if envPassword := os.Getenv(EnvPrefix + "_DATABASE_PASSWORD"); envPassword != "" {
		return envPassword, nil
	}

	return "", fmt.Errorf(
		"no database password configured: set passwordFile or %s_DATABASE_PASSWORD environment variable", EnvPrefix,
	)
}

// GetConnectionString builds a PostgreSQL connection string for the configured database.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User,
		password,
		d.Host,
		d.Port,
		d.Database,
		sslMode,
	)

	return connString, nil
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	// As of now, this is required because there's no other options to load
	// configuration. Once we add more options, we can remove this check.
	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetAddress returns the HTTP listen address, using ":8080" if not specified
func (c *Config) GetAddress() string {
	if c.Server.Address == "" {
		return defaultListenAddress
	}
	return c.Server.Address
}

// GetScanInterval returns the scheduler interval, using the default if not specified.
// The interval is validated at load time, so parse errors are not expected here.
func (c *Config) GetScanInterval() time.Duration {
	if c.Scheduler.Interval == "" {
		return DefaultScanInterval
	}
	interval, err := time.ParseDuration(c.Scheduler.Interval)
	if err != nil {
		return DefaultScanInterval
	}
	return interval
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := validateScheduler(&c.Scheduler); err != nil {
		return err
	}

	if err := validateSequence(&c.Sequence); err != nil {
		return err
	}

	if c.Database != nil {
		if err := validateDatabase(c.Database); err != nil {
			return err
		}
	}

	return nil
}

// validateScheduler validates the scheduler configuration
func validateScheduler(s *SchedulerConfig) error {
	if s.Interval == "" {
		return nil
	}

	interval, err := time.ParseDuration(s.Interval)
	if err != nil {
		return fmt.Errorf("scheduler.interval must be a valid duration (e.g., '30m', '1h'): %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive, got %s", s.Interval)
	}

	return nil
}

// validateSequence validates the sequence API configuration
func validateSequence(s *SequenceConfig) error {
	if s.TokenURL == "" {
		return fmt.Errorf("sequence.tokenUrl is required")
	}
	if s.ContactURL == "" {
		return fmt.Errorf("sequence.contactUrl is required")
	}
	return nil
}

// validateDatabase validates the database configuration
func validateDatabase(d *DatabaseConfig) error {
	if d.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if d.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if d.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if d.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if d.ConnMaxLifetime != "" {
		if _, err := time.ParseDuration(d.ConnMaxLifetime); err != nil {
			return fmt.Errorf("database.connMaxLifetime must be a valid duration: %w", err)
		}
	}
	return nil
}
