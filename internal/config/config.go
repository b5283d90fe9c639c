package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// MaxAdminPageSize caps how many alerts the admin view may read at once.
const MaxAdminPageSize = 500

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string        `env:"APP_NAME" envDefault:"Safeline"`
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	Port           string        `env:"PORT" envDefault:"3000"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"json"`
	StoreDriver    string        `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"safeline.db"`
	RedisURL       string        `env:"REDIS_URL"`
	SessionSecret  string        `env:"SESSION_SECRET"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"10"`
	ShutdownPeriod time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	StoreTimeout   time.Duration `env:"STORE_TIMEOUT" envDefault:"5s"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	LoginRateLimit int           `env:"LOGIN_RATE_LIMIT" envDefault:"5"`
	AdminUser      string        `env:"ADMIN_USER"`
	AdminPassword  string        `env:"ADMIN_PASSWORD"`
	AdminPageSize  int           `env:"ADMIN_PAGE_SIZE" envDefault:"500"`
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.RedisURL = strings.TrimSpace(cfg.RedisURL)

	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when STORE_DRIVER=%s", DriverPostgres)
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return Config{}, fmt.Errorf("SQLITE_PATH must be set when STORE_DRIVER=%s", DriverSQLite)
		}
	case DriverMemory:
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("STORE_DRIVER=%s is only allowed in development", DriverMemory)
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive")
	}
	if cfg.AdminPageSize <= 0 || cfg.AdminPageSize > MaxAdminPageSize {
		cfg.AdminPageSize = MaxAdminPageSize
	}

	if !cfg.IsDev() {
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.SessionSecret == "" {
			return Config{}, fmt.Errorf("SESSION_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return Config{}, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// AdminAuthEnabled reports whether the admin view requires basic auth.
func (c Config) AdminAuthEnabled() bool {
	return c.AdminUser != "" && c.AdminPassword != ""
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
