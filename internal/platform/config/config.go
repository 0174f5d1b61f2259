// Package config loads runtime configuration from defaults, an optional .env file, the
// process environment and explicit overrides.
package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile       = ".env"
	defaultPort          = "8080"
	defaultReadTimeout   = 15 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultIdleTimeout   = 120 * time.Second
	defaultEnvironment   = "local"
	defaultLogLevel      = "info"
	defaultCurrencyUnit  = "Lekë"
	defaultFilterMin     = 0
	defaultFilterMax     = 10000
	defaultStoreBackend  = BackendMemory
	defaultStoreFileDir  = "data/kv"
	defaultCollection    = "market_kv"
	defaultRedisPrefix   = "market"
	defaultSessionCache  = 1024
	defaultSessionMaxAge = 30 * 24 * time.Hour
)

// Supported persistence backends for the shopper key-value store.
const (
	BackendMemory    = "memory"
	BackendFile      = "file"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	LogLevel    string
	Server      ServerConfig
	Catalog     CatalogConfig
	Content     ContentConfig
	Store       StoreConfig
	Session     SessionConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// CatalogConfig points at the product cards and controls the filter defaults.
type CatalogConfig struct {
	File         string
	CurrencyUnit string
	DefaultMin   int
	DefaultMax   int
}

// ContentConfig locates static page content.
type ContentConfig struct {
	TermsFile string
}

// StoreConfig selects and configures the shopper key-value backend.
type StoreConfig struct {
	Backend             string
	FileDir             string
	RedisURL            string
	RedisPrefix         string
	RedisTTL            time.Duration
	FirestoreProjectID  string
	FirestoreCollection string
	FirestoreEmulator   string
}

// SessionConfig controls the shopper session cookie and cart cache.
type SessionConfig struct {
	SigningKey string
	Secure     bool
	MaxAge     time.Duration
	CacheSize  int
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.LookupEnv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides and
// environment variables.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "MARKET_ENV", defaultEnvironment)),
		LogLevel:    strings.ToLower(stringWithDefault(lookup, "MARKET_LOG_LEVEL", defaultLogLevel)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "MARKET_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "MARKET_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "MARKET_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "MARKET_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Catalog: CatalogConfig{
			File:         stringWithDefault(lookup, "MARKET_CATALOG_FILE", ""),
			CurrencyUnit: stringWithDefault(lookup, "MARKET_CURRENCY_UNIT", defaultCurrencyUnit),
			DefaultMin:   intWithDefault(lookup, "MARKET_FILTER_DEFAULT_MIN", defaultFilterMin),
			DefaultMax:   intWithDefault(lookup, "MARKET_FILTER_DEFAULT_MAX", defaultFilterMax),
		},
		Content: ContentConfig{
			TermsFile: stringWithDefault(lookup, "MARKET_TERMS_FILE", ""),
		},
		Store: StoreConfig{
			Backend:             strings.ToLower(stringWithDefault(lookup, "MARKET_STORE_BACKEND", defaultStoreBackend)),
			FileDir:             stringWithDefault(lookup, "MARKET_STORE_FILE_DIR", defaultStoreFileDir),
			RedisURL:            stringWithDefault(lookup, "MARKET_REDIS_URL", ""),
			RedisPrefix:         stringWithDefault(lookup, "MARKET_REDIS_PREFIX", defaultRedisPrefix),
			RedisTTL:            durationWithDefault(lookup, "MARKET_REDIS_TTL", 0),
			FirestoreProjectID:  stringWithDefault(lookup, "MARKET_FIRESTORE_PROJECT_ID", ""),
			FirestoreCollection: stringWithDefault(lookup, "MARKET_FIRESTORE_COLLECTION", defaultCollection),
			FirestoreEmulator:   stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
		},
		Session: SessionConfig{
			SigningKey: stringWithDefault(lookup, "MARKET_SESSION_SIGNING_KEY", ""),
			MaxAge:     durationWithDefault(lookup, "MARKET_SESSION_MAX_AGE", defaultSessionMaxAge),
			CacheSize:  intWithDefault(lookup, "MARKET_SESSION_CACHE_SIZE", defaultSessionCache),
		},
	}
	// Secure cookies default on outside local development.
	cfg.Session.Secure = boolWithDefault(lookup, "MARKET_SESSION_SECURE", cfg.Environment == "prod")

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c Config) IsProduction() bool {
	return c.Environment == "prod"
}

func validateConfig(cfg Config) error {
	var missing []string
	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if strings.TrimSpace(cfg.Catalog.CurrencyUnit) == "" {
		missing = append(missing, "Catalog.CurrencyUnit")
	}
	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if strings.TrimSpace(cfg.Store.FileDir) == "" {
			missing = append(missing, "Store.FileDir")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Store.RedisURL) == "" {
			missing = append(missing, "Store.RedisURL")
		}
	case BackendFirestore:
		if strings.TrimSpace(cfg.Store.FirestoreProjectID) == "" {
			missing = append(missing, "Store.FirestoreProjectID")
		}
	default:
		missing = append(missing, "Store.Backend")
	}
	if cfg.Session.CacheSize <= 0 {
		missing = append(missing, "Session.CacheSize")
	}
	if cfg.Session.MaxAge <= 0 {
		missing = append(missing, "Session.MaxAge")
	}
	if cfg.IsProduction() && len(cfg.Session.SigningKey) < 32 {
		missing = append(missing, "Session.SigningKey")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}
