package config

import (
	"context"
	"testing"
	"time"

	"stamp_card/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "STORE_DRIVER", "JWT_SECRET_KEY", "JWT_EXPIRATION_HOURS", "ADMIN_USERNAME", "ADMIN_PASSWORD", "REQUIRE_ADMIN_AUTH", "PUSH_CONCURRENCY", "DATA_FILE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.ServerPort)
	assert.Equal(t, StoreDriverFile, cfg.StoreDriver)
	assert.Equal(t, "data.json", cfg.DataFile)
	assert.Equal(t, int64(24), cfg.JWTExpirationHours)
	assert.Equal(t, 4, cfg.PushConcurrency)
	assert.False(t, cfg.RequireAdminAuth)
	assert.Len(t, cfg.JWTSecret, 64)
	assert.Equal(t, "REBL", cfg.DefaultAdmin.Username)
	assert.Equal(t, "Corp", cfg.DefaultAdmin.Password)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("JWT_SECRET_KEY", "fixed")
	t.Setenv("JWT_EXPIRATION_HOURS", "not-a-number")
	t.Setenv("ADMIN_USERNAME", "boss")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("REQUIRE_ADMIN_AUTH", "true")
	t.Setenv("PUSH_CONCURRENCY", "0")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "fixed", cfg.JWTSecret)
	assert.Equal(t, int64(24), cfg.JWTExpirationHours)
	assert.Equal(t, 4, cfg.PushConcurrency)
	assert.True(t, cfg.RequireAdminAuth)
	assert.Equal(t, "boss", cfg.DefaultAdmin.Username)
	assert.True(t, utils.CheckPassword("s3cret", cfg.DefaultAdmin.Password))
	assert.NotEqual(t, "s3cret", cfg.DefaultAdmin.Password)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := Load()

	assert.Error(t, err)
}

func TestLoadDBConfig(t *testing.T) {
	t.Setenv("DB_CONNECT_RETRIES", "")
	t.Setenv("DB_RETRY_INTERVAL", "")
	t.Setenv("DB_SSLMODE", "")
	t.Setenv("DB_HOST", "")
	_, err := LoadDBConfig()
	assert.Error(t, err)

	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "stamps")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_NAME", "stamps")
	cfg, err := LoadDBConfig()
	require.NoError(t, err)
	assert.Equal(t, "host=localhost port=5432 user=stamps password=pw dbname=stamps sslmode=disable", cfg.DSN)
	assert.Equal(t, 5, cfg.ConnectTries)
	assert.Equal(t, 5*time.Second, cfg.RetryInterval)

	t.Setenv("DB_CONNECT_RETRIES", "2")
	t.Setenv("DB_RETRY_INTERVAL", "250ms")
	cfg, err = LoadDBConfig()
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.ConnectTries)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryInterval)
}

func TestConnectDB_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := &DBConfig{
		DSN:           "host=127.0.0.1 port=1 user=stamps dbname=stamps sslmode=disable",
		ConnectTries:  3,
		RetryInterval: time.Hour,
	}

	start := time.Now()
	_, err := ConnectDB(ctx, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)
}
