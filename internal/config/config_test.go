package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 60*time.Second, cfg.Reservation.EndTolerance)
	assert.Equal(t, time.Hour, cfg.Reconcile.FuzzyWindow)
	assert.Equal(t, 24*time.Hour, cfg.Reconcile.AmountOnlyWindow)
	assert.Equal(t, 256, cfg.Events.BufferSize)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadRejectsDefaultSecretInProd(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/rental")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "file:test.db")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("RESERVATION_END_TOLERANCE", "90s")
	t.Setenv("INTERNAL_ALLOWED_IPS", "10.0.0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, 90*time.Second, cfg.Reservation.EndTolerance)
	assert.Equal(t, []string{"10.0.0.5"}, cfg.Internal.AllowedIPs)
	assert.Empty(t, cfg.Internal.Token)
}
