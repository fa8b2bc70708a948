// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maturity-diagnostic/internal/domain"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Server ServerConfig

	// Public application settings
	App AppConfig

	// Admin credential and lockout policy
	Admin AdminConfig

	// Backend for login attempts and sessions
	AuthState AuthStateConfig

	// Record store backend
	Store StoreConfig

	// Result e-mail delivery
	Email EmailConfig

	// Narrative enrichment provider
	Enrichment EnrichmentConfig

	// Background dispatch of persistence and e-mail
	Dispatch DispatchConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Port is the HTTP port to listen on.
	Port string

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration

	// TrustedProxies is passed to gin so ClientIP honours X-Forwarded-For
	// only from these networks.
	TrustedProxies []string

	// CORSAllowOrigins lists the origins allowed to call the API.
	CORSAllowOrigins []string
}

// AppConfig contains public application settings.
type AppConfig struct {
	// BaseURL is the public URL used to build result links.
	BaseURL string
}

// ResultURL returns the public result link for a diagnostic id.
func (a AppConfig) ResultURL(id string) string {
	return strings.TrimRight(a.BaseURL, "/") + "/resultado/" + id
}

// AdminConfig contains the admin credential and the lockout policy.
type AdminConfig struct {
	// Password is the plain shared admin credential.
	Password string

	// PasswordHash is a bcrypt hash used instead of Password when set.
	PasswordHash string

	// MaxAttempts is the number of failures that locks an address.
	MaxAttempts int

	// LockoutWindow is how long a lock lasts after the last failure.
	LockoutWindow time.Duration

	// SessionTTL is the validity of an issued session token.
	SessionTTL time.Duration

	// BindSessionToAddress requires the validating address to equal the
	// address the session was issued to.
	BindSessionToAddress bool

	// FailureDelayMin and FailureDelayJitter shape the randomized delay
	// applied after a wrong password.
	FailureDelayMin    time.Duration
	FailureDelayJitter time.Duration
}

// Configured reports whether any admin credential is set.
func (a AdminConfig) Configured() bool {
	return a.Password != "" || a.PasswordHash != ""
}

// Backend names shared by the auth state and record store settings.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNotion   = "notion"
)

// AuthStateConfig selects where login attempts and sessions live.
type AuthStateConfig struct {
	// Backend is memory or redis.
	Backend string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyPrefix namespaces all keys written to Redis.
	KeyPrefix string
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	// Backend is memory, sqlite, postgres or notion.
	Backend string

	// SQLitePath is the database file, or ":memory:".
	SQLitePath string

	// DatabaseURL is the Postgres connection string.
	DatabaseURL string

	Notion NotionConfig

	// MaxRetries is the number of retries on transient HTTP failures.
	MaxRetries int
}

// NotionConfig contains Notion API settings.
type NotionConfig struct {
	APIKey       string
	DataSourceID string
	BaseURL      string
	Version      string
	Timeout      time.Duration
}

// EmailConfig contains Resend settings.
type EmailConfig struct {
	// Enabled turns result e-mails on.
	Enabled bool

	APIKey    string
	FromEmail string
	BaseURL   string
	Timeout   time.Duration

	// MaxRetries is the number of retries on transient HTTP failures.
	MaxRetries int
}

// EnrichmentProvider names the narrative enrichment backend.
type EnrichmentProvider string

const (
	// EnrichmentAnthropic uses the Anthropic Messages API.
	EnrichmentAnthropic EnrichmentProvider = "anthropic"

	// EnrichmentOpenAI uses the OpenAI Chat Completions API.
	EnrichmentOpenAI EnrichmentProvider = "openai"

	// EnrichmentGoogle uses the Gemini API.
	EnrichmentGoogle EnrichmentProvider = "google"

	// EnrichmentMock returns canned text without network calls.
	EnrichmentMock EnrichmentProvider = "mock"

	// EnrichmentNone disables enrichment; every request yields "".
	EnrichmentNone EnrichmentProvider = "none"
)

// EnrichmentConfig contains enrichment provider settings.
type EnrichmentConfig struct {
	// Provider specifies which provider to use.
	Provider EnrichmentProvider

	// APIKey is the authentication key for the provider.
	APIKey string

	// Model is the model to use.
	Model string

	// Timeout is the maximum time to wait for a response.
	Timeout time.Duration

	// MaxTokens is the maximum tokens for a response.
	MaxTokens int

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxRetries is the number of retries on transient failures.
	MaxRetries int
}

// DispatchConfig bounds the detached persistence and e-mail work.
type DispatchConfig struct {
	// Timeout is the deadline for one record's background work.
	Timeout time.Duration

	// Concurrency is the maximum number of records dispatched at once.
	Concurrency int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	provider := EnrichmentProvider(getEnvOrDefault("ENRICH_PROVIDER", string(EnrichmentNone)))

	var defaultModel string
	switch provider {
	case EnrichmentAnthropic:
		defaultModel = "claude-3-5-haiku-latest"
	case EnrichmentOpenAI:
		defaultModel = "gpt-4o-mini"
	case EnrichmentGoogle:
		defaultModel = "gemini-2.0-flash"
	}

	maxRetries := getIntOrDefault("HTTP_MAX_RETRIES", 2)

	cfg := &Config{
		Server: ServerConfig{
			Port:             getEnvOrDefault("PORT", "8080"),
			ReadTimeout:      getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:     getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			TrustedProxies:   getListOrDefault("TRUSTED_PROXIES", nil),
			CORSAllowOrigins: getListOrDefault("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
		},
		App: AppConfig{
			BaseURL: getEnvOrDefault("APP_BASE_URL", "http://localhost:8080"),
		},
		Admin: AdminConfig{
			Password:             os.Getenv("ADMIN_PASSWORD"),
			PasswordHash:         os.Getenv("ADMIN_PASSWORD_HASH"),
			MaxAttempts:          getIntOrDefault("ADMIN_MAX_ATTEMPTS", 5),
			LockoutWindow:        getDurationOrDefault("ADMIN_LOCKOUT_WINDOW", 15*time.Minute),
			SessionTTL:           getDurationOrDefault("ADMIN_SESSION_TTL", 24*time.Hour),
			BindSessionToAddress: getBoolOrDefault("ADMIN_SESSION_BIND_ADDRESS", false),
			FailureDelayMin:      getDurationOrDefault("ADMIN_FAILURE_DELAY_MIN", 100*time.Millisecond),
			FailureDelayJitter:   getDurationOrDefault("ADMIN_FAILURE_DELAY_JITTER", 100*time.Millisecond),
		},
		AuthState: AuthStateConfig{
			Backend:       getEnvOrDefault("AUTH_STATE_BACKEND", BackendMemory),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: os.Getenv("REDIS_PASSWORD"),
			RedisDB:       getIntOrDefault("REDIS_DB", 0),
			KeyPrefix:     getEnvOrDefault("REDIS_KEY_PREFIX", "diag:auth:"),
		},
		Store: StoreConfig{
			Backend:     getEnvOrDefault("STORE_BACKEND", BackendMemory),
			SQLitePath:  getEnvOrDefault("SQLITE_PATH", "diagnostics.db"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Notion: NotionConfig{
				APIKey:       os.Getenv("NOTION_API_KEY"),
				DataSourceID: os.Getenv("NOTION_DATA_SOURCE_ID"),
				BaseURL:      getEnvOrDefault("NOTION_BASE_URL", "https://api.notion.com/v1"),
				Version:      getEnvOrDefault("NOTION_VERSION", "2025-09-03"),
				Timeout:      getDurationOrDefault("NOTION_TIMEOUT", 15*time.Second),
			},
			MaxRetries: maxRetries,
		},
		Email: EmailConfig{
			Enabled:    getBoolOrDefault("EMAIL_ENABLED", false),
			APIKey:     os.Getenv("RESEND_API_KEY"),
			FromEmail:  getEnvOrDefault("RESEND_FROM_EMAIL", "Diagnóstico <diagnostico@example.com>"),
			BaseURL:    getEnvOrDefault("RESEND_BASE_URL", "https://api.resend.com"),
			Timeout:    getDurationOrDefault("RESEND_TIMEOUT", 15*time.Second),
			MaxRetries: maxRetries,
		},
		Enrichment: EnrichmentConfig{
			Provider:    provider,
			APIKey:      os.Getenv("ENRICH_API_KEY"),
			Model:       getEnvOrDefault("ENRICH_MODEL", defaultModel),
			Timeout:     getDurationOrDefault("ENRICH_TIMEOUT", 30*time.Second),
			MaxTokens:   getIntOrDefault("ENRICH_MAX_TOKENS", 1024),
			Temperature: getFloatOrDefault("ENRICH_TEMPERATURE", 0.4),
			MaxRetries:  maxRetries,
		},
		Dispatch: DispatchConfig{
			Timeout:     getDurationOrDefault("DISPATCH_TIMEOUT", 30*time.Second),
			Concurrency: getIntOrDefault("DISPATCH_CONCURRENCY", 8),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.App.BaseURL); err != nil {
		return fmt.Errorf("%w: APP_BASE_URL must be an absolute URL", domain.ErrInvalidConfig)
	}

	if c.Admin.MaxAttempts < 1 {
		return fmt.Errorf("%w: ADMIN_MAX_ATTEMPTS must be at least 1", domain.ErrInvalidConfig)
	}

	if c.Admin.LockoutWindow <= 0 || c.Admin.SessionTTL <= 0 {
		return fmt.Errorf("%w: ADMIN_LOCKOUT_WINDOW and ADMIN_SESSION_TTL must be positive", domain.ErrInvalidConfig)
	}

	if c.Admin.FailureDelayMin < 0 || c.Admin.FailureDelayJitter < 0 {
		return fmt.Errorf("%w: admin failure delays must not be negative", domain.ErrInvalidConfig)
	}

	switch c.AuthState.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.AuthState.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required for the redis auth backend", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown AUTH_STATE_BACKEND %q", domain.ErrInvalidConfig, c.AuthState.Backend)
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite store", domain.ErrInvalidConfig)
		}
	case BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres store", domain.ErrInvalidConfig)
		}
	case BackendNotion:
		if c.Store.Notion.APIKey == "" || c.Store.Notion.DataSourceID == "" {
			return fmt.Errorf("%w: NOTION_API_KEY and NOTION_DATA_SOURCE_ID are required for the notion store", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", domain.ErrInvalidConfig, c.Store.Backend)
	}

	if c.Email.Enabled && c.Email.APIKey == "" {
		return fmt.Errorf("%w: RESEND_API_KEY is required when EMAIL_ENABLED is set", domain.ErrInvalidConfig)
	}

	switch c.Enrichment.Provider {
	case EnrichmentNone, EnrichmentMock:
	case EnrichmentAnthropic, EnrichmentOpenAI, EnrichmentGoogle:
		if c.Enrichment.APIKey == "" {
			return fmt.Errorf("%w: ENRICH_API_KEY is required for provider %s", domain.ErrInvalidConfig, c.Enrichment.Provider)
		}
		if c.Enrichment.Timeout < time.Second {
			return fmt.Errorf("%w: ENRICH_TIMEOUT must be at least 1 second", domain.ErrInvalidConfig)
		}
		if c.Enrichment.MaxTokens < 100 {
			return fmt.Errorf("%w: ENRICH_MAX_TOKENS must be at least 100", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown ENRICH_PROVIDER %q", domain.ErrInvalidConfig, c.Enrichment.Provider)
	}

	if c.Dispatch.Concurrency < 1 {
		return fmt.Errorf("%w: DISPATCH_CONCURRENCY must be at least 1", domain.ErrInvalidConfig)
	}

	if c.Dispatch.Timeout < time.Second {
		return fmt.Errorf("%w: DISPATCH_TIMEOUT must be at least 1 second", domain.ErrInvalidConfig)
	}

	return nil
}

// Helper functions for reading environment variables

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getFloatOrDefault(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Try parsing as seconds first (e.g., "15")
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		// Try parsing as duration string (e.g., "15s", "1m")
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getListOrDefault splits a comma separated value, dropping empty items.
func getListOrDefault(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
