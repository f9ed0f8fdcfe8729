package config

import (
	"crypto/tls"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PlaceholderWebhookURL is the sample URL shipped in the example .env file.
// It must be replaced before notifications can be delivered.
const PlaceholderWebhookURL = "https://hooks.slack.com/services/foo/bar/baz"

// Config holds the application configuration
type Config struct {
	// Webhook delivery configuration
	Webhook WebhookConfig

	// svnlook configuration
	SVNLook SVNLookConfig

	// Defaults for the repository being announced
	Repository RepositoryConfig

	// Logging configuration
	Log LogConfig

	// Relay server configuration
	Server ServerConfig

	// Security configuration
	Security SecurityConfig
}

// WebhookConfig holds chat webhook configuration
type WebhookConfig struct {
	URL           string
	Timeout       time.Duration
	MinTLSVersion uint16
	MaxTLSVersion uint16
}

// SVNLookConfig holds the location of the svnlook executable
type SVNLookConfig struct {
	Path string
}

// RepositoryConfig holds defaults used when the hook does not pass them
type RepositoryConfig struct {
	Name    string
	URL     string
	Channel string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// ServerConfig holds relay server configuration
type ServerConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int
}

// SecurityConfig holds security-specific configuration
type SecurityConfig struct {
	// API Keys - sent by clients of the relay for authentication
	APIKeys []string
}

// Load loads configuration from environment variables with sensible defaults.
// Webhook URL problems are not reported here: the notifier logs them on every
// attempt so a misconfigured hook still leaves a trace.
func Load() (*Config, error) {
	// Try to load .env file (ignore errors - it's optional)
	_ = godotenv.Load(".env")

	minTLS, err := getEnvAsTLSVersion("WEBHOOK_MIN_TLS_VERSION", tls.VersionTLS10)
	if err != nil {
		return nil, err
	}
	maxTLS, err := getEnvAsTLSVersion("WEBHOOK_MAX_TLS_VERSION", tls.VersionTLS12)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Webhook: WebhookConfig{
			URL:           getEnv("WEBHOOK_URL", ""),
			Timeout:       getEnvAsDuration("WEBHOOK_TIMEOUT", 30*time.Second),
			MinTLSVersion: minTLS,
			MaxTLSVersion: maxTLS,
		},
		SVNLook: SVNLookConfig{
			Path: getEnv("SVNLOOK_PATH", "svnlook"),
		},
		Repository: RepositoryConfig{
			Name:    getEnv("REPOSITORY_NAME", ""),
			URL:     getEnv("REPOSITORY_URL", ""),
			Channel: getEnv("CHANNEL", ""),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", ""),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:        getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Security: SecurityConfig{
			APIKeys: getEnvAsSlice("API_KEYS", []string{}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.SVNLook.Path == "" {
		return fmt.Errorf("svnlook path is required")
	}

	if c.Webhook.MinTLSVersion > c.Webhook.MaxTLSVersion {
		return fmt.Errorf("webhook minimum TLS version %s is above maximum %s",
			tls.VersionName(c.Webhook.MinTLSVersion), tls.VersionName(c.Webhook.MaxTLSVersion))
	}

	if c.Webhook.Timeout <= 0 {
		return fmt.Errorf("invalid webhook timeout: %s", c.Webhook.Timeout)
	}

	return nil
}

// ValidateServer validates the settings only the relay server needs
func (c *Config) ValidateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RateLimitPerMinute < 1 {
		return fmt.Errorf("invalid rate limit: %d", c.Server.RateLimitPerMinute)
	}

	if len(c.Security.APIKeys) == 0 {
		return fmt.Errorf("at least one API key is required")
	}

	// Check for default/insecure API keys
	for _, key := range c.Security.APIKeys {
		if key == "default-api-key" || key == "api-key-123" || len(key) < 8 {
			return fmt.Errorf("insecure or default API key detected: '%s'. Please set secure API keys in environment variables", key)
		}
	}

	return nil
}

// Address returns the server address in the format host:port
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ParseTLSVersion accepts "1.0", "1.1", "1.2" or "1.3" (optionally prefixed
// with "TLS").
func ParseTLSVersion(s string) (uint16, error) {
	v := strings.TrimSpace(strings.ToUpper(s))
	v = strings.TrimPrefix(v, "TLS")
	v = strings.TrimSpace(v)

	switch v {
	case "1.0", "10":
		return tls.VersionTLS10, nil
	case "1.1", "11":
		return tls.VersionTLS11, nil
	case "1.2", "12":
		return tls.VersionTLS12, nil
	case "1.3", "13":
		return tls.VersionTLS13, nil
	}
	return 0, fmt.Errorf("unknown TLS version %q", s)
}

// Helper functions to get environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsTLSVersion(key string, defaultValue uint16) (uint16, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := ParseTLSVersion(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return value, nil
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	// Split by comma and trim spaces
	values := make([]string, 0)
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}

	return values
}
