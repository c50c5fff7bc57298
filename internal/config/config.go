// ABOUTME: Configuration loading and parsing for wa-relay.
// ABOUTME: YAML with environment variable expansion, env-only fallback, duration parsing.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete wa-relay configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Destination DestinationConfig `yaml:"destination"`
	Email       EmailConfig       `yaml:"email"`
	Database    DatabaseConfig    `yaml:"database"`
	Session     SessionConfig     `yaml:"session"`
	Logging     LoggingConfig     `yaml:"logging"`
	Debug       bool              `yaml:"debug"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + s.Port
}

// DestinationConfig names the default chat messages are relayed to.
// ID wins over Name when both are set.
type DestinationConfig struct {
	Name string `yaml:"name"`
	ID   string `yaml:"id"`
}

// EmailConfig holds the operator-notification email settings. When To is
// empty, pairing codes are only rendered to the terminal.
type EmailConfig struct {
	To     string `yaml:"to"`
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

// DatabaseConfig holds the audit-log database location.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// SessionConfig holds WhatsApp session settings. StorePath is where the
// client persists its credentials between restarts.
type SessionConfig struct {
	StorePath string `yaml:"store_path"`

	RestartDelay        time.Duration `yaml:"-"`
	TransientRetryDelay time.Duration `yaml:"-"`
	RetryDelay          time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	RestartDelayRaw        string `yaml:"restart_delay"`
	TransientRetryDelayRaw string `yaml:"transient_retry_delay"`
	RetryDelayRaw          string `yaml:"retry_delay"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads configuration from the given YAML path. Environment variables
// in ${VAR_NAME} format are expanded. An empty path loads configuration from
// the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expandedData := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvDefaults()

	if err := parseDurations(&cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// applyEnvDefaults fills unset fields from the environment variables the
// original deployment used, then hard defaults.
func (c *Config) applyEnvDefaults() {
	fallback(&c.Server.Port, "SERVER_PORT", "8000")
	fallback(&c.Destination.Name, "DESTINATION_CHAT_NAME", "")
	fallback(&c.Destination.ID, "DESTINATION_CHAT_ID", "")
	fallback(&c.Email.To, "QR_EMAIL_TO", "")
	fallback(&c.Email.APIKey, "RESEND_API_KEY", "")
	fallback(&c.Email.From, "EMAIL_FROM", "onboarding@resend.dev")
	fallback(&c.Database.Path, "DATABASE_PATH", "data/relay.db")
	fallback(&c.Session.StorePath, "WA_SESSION_PATH", "data/wa-session.db")
	fallback(&c.Logging.Level, "LOG_LEVEL", "info")
	fallback(&c.Logging.Format, "LOG_FORMAT", "text")

	if !c.Debug && os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

// fallback sets *dst from the named environment variable, then the default,
// if it is still empty.
func fallback(dst *string, envName, def string) {
	if *dst != "" {
		return
	}
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			*dst = v
			return
		}
	}
	*dst = def
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables become empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// parseDurations converts raw duration strings into time.Duration values,
// defaulting to the relay's production timing.
func parseDurations(cfg *Config) error {
	var err error
	if cfg.Session.RestartDelay, err = parseDuration(cfg.Session.RestartDelayRaw, 3*time.Second); err != nil {
		return fmt.Errorf("restart_delay: %w", err)
	}
	if cfg.Session.TransientRetryDelay, err = parseDuration(cfg.Session.TransientRetryDelayRaw, 5*time.Second); err != nil {
		return fmt.Errorf("transient_retry_delay: %w", err)
	}
	if cfg.Session.RetryDelay, err = parseDuration(cfg.Session.RetryDelayRaw, 10*time.Second); err != nil {
		return fmt.Errorf("retry_delay: %w", err)
	}
	return nil
}

func parseDuration(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}

// Validate checks required fields and cross-field constraints.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Email.To != "" && c.Email.APIKey == "" {
		return fmt.Errorf("email.api_key is required when email.to is set")
	}
	return nil
}
