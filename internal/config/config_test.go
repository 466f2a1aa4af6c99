package config_test

import (
	"testing"

	"stockfield/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "8080")
	t.Setenv("POSTGRES_DB", "stockfield")
	t.Setenv("ALERT_WINDOW_DAYS", "7")
	t.Setenv("MAX_UPDATE_RETRIES", "3")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.AlertWindowDays)
	assert.Equal(t, 3, cfg.MaxUpdateRetries)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Contains(t, cfg.DSN(), "dbname=stockfield")
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_DatabaseURLWins(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DSN())
}

func TestLoad_RejectsBadWindow(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ALERT_WINDOW_DAYS", "0")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_AdminNeedsPassword(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := config.Load()
	assert.Error(t, err)
}
