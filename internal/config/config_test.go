package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Safeline", cfg.AppName)
	require.Equal(t, ":3000", cfg.Address())
	require.Equal(t, 24*time.Hour, cfg.SessionTTL)
	require.Equal(t, 10, cfg.BcryptCost)
	require.Equal(t, MaxAdminPageSize, cfg.AdminPageSize)
	require.NotEmpty(t, cfg.SessionSecret, "dev should get a generated secret")
	require.False(t, cfg.AdminAuthEnabled())
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mysql")

	_, err := Load()
	require.ErrorContains(t, err, "unsupported STORE_DRIVER")
}

func TestLoadProductionRequirements(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/safeline.db")

	_, err := Load()
	require.ErrorContains(t, err, "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	_, err = Load()
	require.ErrorContains(t, err, "SESSION_SECRET")

	t.Setenv("SESSION_SECRET", "s3cret")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "s3cret", cfg.SessionSecret)
	require.False(t, cfg.IsDev())

	t.Setenv("STORE_DRIVER", "memory")
	_, err = Load()
	require.Error(t, err)
}

func TestLoadCapsAdminPageSize(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ADMIN_PAGE_SIZE", "5000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, MaxAdminPageSize, cfg.AdminPageSize)
}

func TestLoadRejectsBcryptCost(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("BCRYPT_COST", "99")

	_, err := Load()
	require.Error(t, err)
}

func TestAddressKeepsColonPrefix(t *testing.T) {
	cfg := Config{Port: ":8081"}
	require.Equal(t, ":8081", cfg.Address())
}
