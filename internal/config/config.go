// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Load     LoadConfig
	Filter   FilterConfig
	Server   ServerConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// LoadConfig holds CSV loading settings.
type LoadConfig struct {
	// Delimiter is the field separator: a single character, or "tab" (default: ,)
	Delimiter string `env:"LOAD_DELIMITER" default:","`

	// TemporalColumns are parsed into instants when present (default: data)
	TemporalColumns []string `env:"LOAD_TEMPORAL_COLUMNS" default:"data"`

	// NumericColumns are parsed into numbers when present (default: preço)
	NumericColumns []string `env:"LOAD_NUMERIC_COLUMNS" default:"preço"`

	// MaxFileSize is the maximum accepted file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"LOAD_MAX_FILE_SIZE" default:"104857600"`
}

// FilterConfig holds the default comparison options.
type FilterConfig struct {
	// CaseInsensitive folds case when comparing text (default: true)
	CaseInsensitive bool `env:"FILTER_CASE_INSENSITIVE" default:"true"`

	// Strip trims surrounding whitespace when comparing text (default: true)
	Strip bool `env:"FILTER_STRIP" default:"true"`

	// FloatTol is the absolute numeric tolerance; unset means exact equality
	FloatTol *float64 `env:"FILTER_FLOAT_TOL"`

	// Parallel evaluates constraints concurrently (default: false)
	Parallel bool `env:"FILTER_PARALLEL" default:"false"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// DataRoot is the directory datasets may be loaded from (default: .)
	DataRoot string `env:"DATA_ROOT" default:"."`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxConcurrentLoads limits parallel dataset loads and uploads (default: 5)
	MaxConcurrentLoads int `env:"SERVER_MAX_CONCURRENT_LOADS" default:"5"`

	// LoadWaitTimeout is how long a load waits for a free slot (default: 30s)
	LoadWaitTimeout time.Duration `env:"SERVER_LOAD_WAIT_TIMEOUT" default:"30s"`

	// DatasetTTL evicts datasets loaded longer ago than this; 0 keeps them (default: 0)
	DatasetTTL time.Duration `env:"DATASET_TTL" default:"0s"`
}

// SecurityConfig holds settings for the HTTP API.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Real-IP / X-Forwarded-For headers are honoured
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey rejects API requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// RateLimit is the number of requests per minute per client; 0 disables (default: 100)
	RateLimit int `env:"RATE_LIMIT" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// SeqURL enables shipping logs to a Seq server when set
	SeqURL string `env:"LOG_SEQ_URL"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DelimiterRune returns the configured delimiter as a rune.
// Validate guarantees the conversion succeeds.
func (c *LoadConfig) DelimiterRune() rune {
	r, _ := parseDelimiter(c.Delimiter)
	return r
}
