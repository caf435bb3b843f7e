package config

import (
	"fmt"
	"math"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values and validates the result.
// Returns an error if required values are missing or validation fails.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct recursively populates struct fields from environment variables.
func loadStruct(v reflect.Value) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true"

		if envName == "" {
			continue
		}

		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number: %w", err)
		}
		field.SetFloat(f)

	case reflect.Pointer:
		// Optional values: the pointer stays nil when the variable is unset.
		elem := reflect.New(field.Type().Elem())
		if err := setField(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			result := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					result = append(result, p)
				}
			}
			field.Set(reflect.ValueOf(result))
		} else {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// parseDelimiter accepts a single character or the word "tab" / `\t`.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("must be a single character")
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%q cannot be used as a delimiter", r)
	}
	return r, nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	var errs []string

	// Load validation
	if _, err := parseDelimiter(c.Load.Delimiter); err != nil {
		errs = append(errs, fmt.Sprintf("LOAD_DELIMITER (%q) %v", c.Load.Delimiter, err))
	}
	if c.Load.MaxFileSize <= 0 {
		errs = append(errs, "LOAD_MAX_FILE_SIZE must be positive")
	}
	seen := make(map[string]bool)
	for _, col := range append(append([]string{}, c.Load.TemporalColumns...), c.Load.NumericColumns...) {
		if seen[col] {
			errs = append(errs, fmt.Sprintf("column %q is listed more than once in LOAD_TEMPORAL_COLUMNS/LOAD_NUMERIC_COLUMNS", col))
		}
		seen[col] = true
	}

	// Filter validation
	if tol := c.Filter.FloatTol; tol != nil && (*tol < 0 || math.IsNaN(*tol)) {
		errs = append(errs, fmt.Sprintf("FILTER_FLOAT_TOL (%v) must be a non-negative number", *tol))
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.MaxConcurrentLoads <= 0 {
		errs = append(errs, fmt.Sprintf("SERVER_MAX_CONCURRENT_LOADS (%d) must be positive", c.Server.MaxConcurrentLoads))
	}
	if c.Server.LoadWaitTimeout <= 0 {
		errs = append(errs, "SERVER_LOAD_WAIT_TIMEOUT must be positive")
	}
	if c.Server.DatasetTTL < 0 {
		errs = append(errs, "DATASET_TTL must be non-negative")
	}
	if c.Server.DataRoot == "" {
		errs = append(errs, "DATA_ROOT must not be empty")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "API_KEYS must be set when REQUIRE_API_KEY is true")
	}
	if c.Security.RateLimit < 0 {
		errs = append(errs, fmt.Sprintf("RATE_LIMIT (%d) must be non-negative", c.Security.RateLimit))
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
func (c *Config) String() string {
	tol := "exact"
	if c.Filter.FloatTol != nil {
		tol = strconv.FormatFloat(*c.Filter.FloatTol, 'g', -1, 64)
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Load: {Delimiter: %q, Temporal: %v, Numeric: %v, MaxFileSize: %d}, ",
		c.Load.Delimiter, c.Load.TemporalColumns, c.Load.NumericColumns, c.Load.MaxFileSize)
	fmt.Fprintf(&b, "Filter: {CaseInsensitive: %v, Strip: %v, FloatTol: %s, Parallel: %v}, ",
		c.Filter.CaseInsensitive, c.Filter.Strip, tol, c.Filter.Parallel)
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d, DataRoot: %q, MaxConcurrentLoads: %d, DatasetTTL: %s}, ",
		c.Server.Host, c.Server.Port, c.Server.DataRoot, c.Server.MaxConcurrentLoads, c.Server.DatasetTTL)
	fmt.Fprintf(&b, "Security: {TrustedProxies: %d, RequireAPIKey: %v, APIKeys: %d, RateLimit: %d}, ",
		len(c.Security.TrustedProxies), c.Security.RequireAPIKey, len(c.Security.APIKeys), c.Security.RateLimit)
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q, Seq: %v}",
		c.Logging.Level, c.Logging.Format, c.Logging.SeqURL != "")
	b.WriteString("}")
	return b.String()
}
