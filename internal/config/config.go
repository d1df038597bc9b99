// Package config provides environment-variable-first configuration loading
// with optional YAML file and .env file layers for bulkmail.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/shineum/bulkmail-lite/internal/provider/httpapi"
)

// defaultMaxUploadSize is 10 MB in bytes.
const defaultMaxUploadSize = 10 << 20

// Config holds the complete application configuration.
type Config struct {
	Provider string         `yaml:"provider"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	HTTP     HTTPConfig     `yaml:"http"`
	TLS      TLSConfig      `yaml:"tls"`
	SES      SESConfig      `yaml:"ses"`
	Resend   ResendConfig   `yaml:"resend"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// EndpointConfig holds the remote bulk endpoint settings.
type EndpointConfig struct {
	URL string `yaml:"url"`
	// Timeout of zero leaves the HTTP transport default in place.
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPConfig holds the web UI server configuration.
type HTTPConfig struct {
	Listen        string `yaml:"listen"`
	Username      string `yaml:"username"`
	Password      string `yaml:"password"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
	// RateLimit is the number of API requests allowed per minute per client.
	RateLimit int `yaml:"rate_limit"`
}

// TLSConfig holds TLS settings for the web UI.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SESConfig holds AWS SES v2 configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// ResendConfig holds Resend API configuration.
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
	Sender string `yaml:"sender"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs from a .env file into the process
// environment without overwriting variables that are already set.
// A missing file is not an error unless required is true.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// ResendConfigured returns true if the Resend API key and sender are set.
func (c *Config) ResendConfigured() bool {
	return c.Resend.APIKey != "" && c.Resend.Sender != ""
}

// AuthEnabled returns true if both web UI username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.HTTP.Username != "" && c.HTTP.Password != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.Provider = "http"
	c.Endpoint.URL = httpapi.DefaultEndpoint
	c.HTTP.Listen = ":8080"
	c.HTTP.MaxUploadSize = defaultMaxUploadSize
	c.HTTP.RateLimit = 60
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() error {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("ENDPOINT_URL"); v != "" {
		c.Endpoint.URL = v
	}
	if v := os.Getenv("ENDPOINT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ENDPOINT_TIMEOUT %q: %w", v, err)
		}
		c.Endpoint.Timeout = d
	}

	if v := os.Getenv("HTTP_LISTEN"); v != "" {
		c.HTTP.Listen = v
	}
	if v := os.Getenv("HTTP_USERNAME"); v != "" {
		c.HTTP.Username = v
	}
	if v := os.Getenv("HTTP_PASSWORD"); v != "" {
		c.HTTP.Password = v
	}
	if v := os.Getenv("HTTP_MAX_UPLOAD_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.HTTP.MaxUploadSize = size
		}
	}
	if v := os.Getenv("HTTP_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HTTP.RateLimit = n
		}
	}

	if v := os.Getenv("TLS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.TLS.Enabled = b
		}
	}
	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("RESEND_API_KEY"); v != "" {
		c.Resend.APIKey = v
	}
	if v := os.Getenv("RESEND_SENDER"); v != "" {
		c.Resend.Sender = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}

	return nil
}
