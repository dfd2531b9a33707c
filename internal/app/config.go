package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (KART_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"HTTP listen address"`
	ImageBaseURL string `default:"" usage:"Base URL for product images (e.g. https://cdn.example.com)" flag:"image-base-url"`
	Storage      StorageConfig
	Session      SessionConfig
	Welcome      WelcomeConfig
	Plans        []string `default:"Basic,Premium,Ultimate" usage:"Subscription plans offered"`
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// StorageConfig selects where session slots and records live.
type StorageConfig struct {
	Driver      string `default:"memory" usage:"Slot storage driver: memory, file or postgres"`
	DatabaseURL string `usage:"PostgreSQL connection URL (KART_STORAGE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Dir         string `default:"./data" usage:"Directory for the file driver"`
}

// SessionConfig controls the session cookie and idle cart eviction.
type SessionConfig struct {
	CookieName string        `default:"kart_session" usage:"Session cookie name"`
	MaxAge     time.Duration `default:"720h" usage:"Session cookie lifetime"`
	Secure     bool          `default:"false" usage:"Mark the session cookie Secure"`
	IdleEvict  time.Duration `default:"30m" usage:"Drop in-memory carts idle this long"`
}

// WelcomeConfig controls the one-time welcome notice.
type WelcomeConfig struct {
	Delay time.Duration `default:"2s" usage:"Delay before the welcome notice shows"`
	Code  string        `default:"WELCOME10" usage:"Discount code handed out on signup"`
}

// RateLimitConfig controls the per-client limiter on mutating requests.
type RateLimitConfig struct {
	Max    int           `default:"60" usage:"Max mutating requests per window"`
	Window time.Duration `default:"1m" usage:"Rate limit window duration"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "KART",
		Files:     []string{"config.yaml", "/etc/kart/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Storage.Dir == "" {
			return errors.New("storage dir is required for the file driver")
		}
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return errors.New("database URL is required: set KART_STORAGE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.RateLimit.Max <= 0 {
		return errors.New("rate limit max must be positive")
	}
	if c.Session.IdleEvict <= 0 {
		return errors.New("session idle evict must be positive")
	}
	return nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's KART_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
