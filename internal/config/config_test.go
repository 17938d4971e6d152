package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "booking")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_NAME", "booking")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, "3306", cfg.DBPort)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.Equal(t, 5*time.Second, cfg.BookingTimeout)
}

func TestLoadReportsAllMissingKeys(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	_, err := Load()
	require.Error(t, err)
	for _, key := range []string{"APP_ENV", "JWT_SECRET", "DB_USER", "DB_HOST", "DB_NAME"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadRequiresAppEnv(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_ENV", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "APP_ENV")

	t.Setenv("APP_ENV", "development")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadSQLiteSkipsMySQLKeys(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "sqlite3")
	t.Setenv("DB_PATH", "/tmp/booking.db")
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/booking.db", cfg.DBPath)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoadRejectsBadValues(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("BCRYPT_COST", "abc")
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BCRYPT_COST")
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestRateLimitConfigNormalized(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "1s")
	t.Setenv("RATE_LIMIT_TTL", "1s")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 1, cfg.Capacity)
	assert.Equal(t, 5*time.Second, cfg.TTL)
}

func TestCacheConfigMethods(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")

	cfg := LoadCacheConfig()
	assert.True(t, cfg.Methods["GET"])
	assert.True(t, cfg.Methods["HEAD"])
	assert.False(t, cfg.Methods["POST"])
}
