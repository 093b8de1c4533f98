// Package config loads and validates the gridline service configuration.
// Structural settings come from a TOML file; secrets (upstream credentials,
// database password) come from the environment, optionally via a .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Version is the supported configuration file format version.
const Version = "0.1.0"

// Environment variable names for externally supplied secrets.
const (
	EnvUpstreamEmail    = "GRIDLINE_UPSTREAM_EMAIL"
	EnvUpstreamPassword = "GRIDLINE_UPSTREAM_PASSWORD"
	EnvDBPassword       = "GRIDLINE_DB_PASSWORD"
)

// UpstreamConfig holds settings for the remote racing service.
type UpstreamConfig struct {
	BaseURL            string `toml:"base_url" validate:"required,url"`
	RequestTimeout     string `toml:"request_timeout"`      // per-call bound, default 30s equivalent
	ReauthInterval     string `toml:"reauth_interval"`      // periodic session verification interval
	LoginAttempts      uint   `toml:"login_attempts"`       // bounded login retries
	LoginRetryDelay    string `toml:"login_retry_delay"`    // fixed delay between login attempts
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"` // tolerate the upstream's legacy TLS chain
	LeagueID           int    `toml:"league_id"`            // league scope for roster lookups

	// Supplied via environment, never from the config file.
	Email    string `toml:"-"`
	Password string `toml:"-"`
}

// GetRequestTimeout returns the upstream call timeout as time.Duration.
func (u *UpstreamConfig) GetRequestTimeout() (time.Duration, error) {
	return ParseDuration(u.RequestTimeout)
}

// GetRequestTimeoutOrDefault returns the upstream call timeout or panics
// if the configured value is invalid.
func (u *UpstreamConfig) GetRequestTimeoutOrDefault() time.Duration {
	d, err := u.GetRequestTimeout()
	if err != nil {
		panic(fmt.Sprintf("invalid upstream request timeout: %v", err))
	}
	return d
}

// GetReauthInterval returns the re-authentication interval as time.Duration.
func (u *UpstreamConfig) GetReauthInterval() (time.Duration, error) {
	return ParseDuration(u.ReauthInterval)
}

// GetReauthIntervalOrDefault returns the re-authentication interval or
// panics if the configured value is invalid.
func (u *UpstreamConfig) GetReauthIntervalOrDefault() time.Duration {
	d, err := u.GetReauthInterval()
	if err != nil {
		panic(fmt.Sprintf("invalid reauth interval: %v", err))
	}
	return d
}

// GetLoginRetryDelay returns the delay between login attempts.
func (u *UpstreamConfig) GetLoginRetryDelay() (time.Duration, error) {
	return ParseDuration(u.LoginRetryDelay)
}

// GetLoginRetryDelayOrDefault returns the delay between login attempts or
// panics if the configured value is invalid.
func (u *UpstreamConfig) GetLoginRetryDelayOrDefault() time.Duration {
	d, err := u.GetLoginRetryDelay()
	if err != nil {
		panic(fmt.Sprintf("invalid login retry delay: %v", err))
	}
	return d
}

// RefreshConfig holds settings for the schedule refresh cycle.
type RefreshConfig struct {
	Interval string `toml:"interval"` // interval between fetch/normalize/persist cycles
}

// GetInterval returns the refresh interval as time.Duration.
func (rc *RefreshConfig) GetInterval() (time.Duration, error) {
	return ParseDuration(rc.Interval)
}

// GetIntervalOrDefault returns the refresh interval or panics if the
// configured value is invalid.
func (rc *RefreshConfig) GetIntervalOrDefault() time.Duration {
	d, err := rc.GetInterval()
	if err != nil {
		panic(fmt.Sprintf("invalid refresh interval: %v", err))
	}
	return d
}

// ConfigParam holds all configuration parameters for the gridline service.
type ConfigParam struct {
	FormatVersion string `toml:"format_version"`

	// Server configuration
	ServerHostName string `toml:"server_hostname"`
	ServerPort     string `toml:"server_port" validate:"required"`
	HandleCORS     bool   `toml:"handle_cors"`
	FrontendOrigin string `toml:"frontend_origin"` // allowed origin for the betting frontend
	RequestTimeout string `toml:"request_timeout"` // inbound request handling bound

	// Upstream racing service
	Upstream UpstreamConfig `toml:"upstream"`

	// Refresh cycle
	Refresh RefreshConfig `toml:"refresh"`

	// Database configuration
	DB struct {
		Host     string `toml:"host" validate:"required"`
		Port     int    `toml:"port" validate:"required,gt=0"`
		DBName   string `toml:"dbname" validate:"required"`
		User     string `toml:"user" validate:"required"`
		SSLMode  string `toml:"sslmode" validate:"required"`
		Password string `toml:"-"` // from environment
	} `toml:"db"`
}

var cfg *ConfigParam

// Config returns the current configuration.
func Config() *ConfigParam {
	return cfg
}

// DSN returns the database connection string.
func (c *ConfigParam) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.DBName, c.DB.SSLMode)
}

// GetRequestTimeout returns the inbound request handling bound.
func (c *ConfigParam) GetRequestTimeout() (time.Duration, error) {
	return ParseDuration(c.RequestTimeout)
}

// GetRequestTimeoutOrDefault returns the inbound request handling bound or
// panics if the configured value is invalid.
func (c *ConfigParam) GetRequestTimeoutOrDefault() time.Duration {
	d, err := c.GetRequestTimeout()
	if err != nil {
		panic(fmt.Sprintf("invalid request timeout: %v", err))
	}
	return d
}

// ParseDuration parses a duration string in the format "<number><unit>"
// where unit can be:
//   - s: seconds
//   - m: minutes
//   - h: hours
//   - d: days
func ParseDuration(input string) (time.Duration, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}

	var duration time.Duration
	switch unit {
	case "s":
		duration = time.Duration(value) * time.Second
	case "m":
		duration = time.Duration(value) * time.Minute
	case "h":
		duration = time.Duration(value) * time.Hour
	case "d":
		duration = time.Duration(value) * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}

	return duration, nil
}

// ValidateConfig checks that all required configuration values are present
// and valid, and applies defaults for optional fields.
func ValidateConfig(cfg *ConfigParam) error {
	if cfg.FormatVersion != Version {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %v", err)
	}
	if err := validateUpstreamConfig(cfg); err != nil {
		return err
	}
	if err := validateRefreshConfig(cfg); err != nil {
		return err
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = "60s"
	}
	if _, err := ParseDuration(cfg.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %v", err)
	}
	return nil
}

func validateUpstreamConfig(cfg *ConfigParam) error {
	u := &cfg.Upstream
	if u.RequestTimeout == "" {
		u.RequestTimeout = "30s"
	}
	if _, err := ParseDuration(u.RequestTimeout); err != nil {
		return fmt.Errorf("invalid upstream.request_timeout: %v", err)
	}
	if u.ReauthInterval == "" {
		u.ReauthInterval = "15m"
	}
	d, err := ParseDuration(u.ReauthInterval)
	if err != nil {
		return fmt.Errorf("invalid upstream.reauth_interval: %v", err)
	}
	if d < 5*time.Minute || d > 30*time.Minute {
		return fmt.Errorf("upstream.reauth_interval must be between 5m and 30m")
	}
	if u.LoginAttempts == 0 {
		u.LoginAttempts = 5
	}
	if u.LoginRetryDelay == "" {
		u.LoginRetryDelay = "10s"
	}
	if _, err := ParseDuration(u.LoginRetryDelay); err != nil {
		return fmt.Errorf("invalid upstream.login_retry_delay: %v", err)
	}
	return nil
}

func validateRefreshConfig(cfg *ConfigParam) error {
	if cfg.Refresh.Interval == "" {
		cfg.Refresh.Interval = "1m"
	}
	if _, err := ParseDuration(cfg.Refresh.Interval); err != nil {
		return fmt.Errorf("invalid refresh.interval: %v", err)
	}
	return nil
}

// LoadConfig loads configuration from a file and merges secrets from the
// environment. A .env file in the working directory is honored when present.
func LoadConfig(filename string) error {
	if filename == "" {
		return fmt.Errorf("config filename is required")
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	cfg = &ConfigParam{}
	if _, err := toml.Decode(string(content), cfg); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}

	// Missing .env is not an error; the environment may be set directly.
	_ = godotenv.Load()

	cfg.Upstream.Email = os.Getenv(EnvUpstreamEmail)
	cfg.Upstream.Password = os.Getenv(EnvUpstreamPassword)
	cfg.DB.Password = os.Getenv(EnvDBPassword)

	if err := ValidateConfig(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	return nil
}

var isTest = false

// IsTest reports whether the package runs under test configuration.
func IsTest() bool {
	return isTest
}

// TestInit loads the repository-root config file for tests.
func TestInit() {
	isTest = true
	wd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	projectRoot := wd
	for {
		if _, err := os.Stat(filepath.Join(projectRoot, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(projectRoot)
		if parent == projectRoot {
			panic("could not find project root (go.mod)")
		}
		projectRoot = parent
	}
	if err := LoadConfig(filepath.Join(projectRoot, "gridsrv.conf")); err != nil {
		panic(fmt.Errorf("error loading config: %v", err))
	}
}
