package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.NotEmpty(t, cfg.Auth.JWTSecret)
	assert.Positive(t, cfg.Auth.TokenTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("APP_DATABASE_PASSWORD", "s3cret")
	t.Setenv("APP_SERVER_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestDSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "events", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=events sslmode=disable", c.DSN())
}
