package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/invoicer/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "a-very-long-secret-used-only-in-this-test")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTTL)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ResetTTL)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, 5*time.Minute, cfg.DB.ConnMaxLifetime)
	assert.False(t, cfg.IsDevelopment())
}

func TestConfig_ConnectionString(t *testing.T) {
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_SSLMODE", "require")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://postgres:pw@db:5432/invoicer?sslmode=require", cfg.ConnectionString())
}
