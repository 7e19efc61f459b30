package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "batch_changes", cfg.Reactor.Channel)
	assert.Equal(t, 1, cfg.Reactor.Workers)
	assert.True(t, cfg.Reactor.Enabled)
	assert.Equal(t, "bag", cfg.Reactor.FinalProductUnit)
	assert.Equal(t, "5", cfg.Reactor.FinalProductReorderPoint.String())
	assert.Equal(t, 8080, cfg.HTTP.Port)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("REACTOR_CHANNEL", "lotes")
	t.Setenv("REACTOR_WORKERS", "4")
	t.Setenv("REACTOR_ENABLED", "false")
	t.Setenv("FINAL_PRODUCT_REORDER_POINT", "12.5")
	t.Setenv("DB_MAX_CONNS", "abc")
	t.Setenv("HTTP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "lotes", cfg.Reactor.Channel)
	assert.Equal(t, 4, cfg.Reactor.Workers)
	assert.False(t, cfg.Reactor.Enabled)
	assert.Equal(t, "12.5", cfg.Reactor.FinalProductReorderPoint.String())
	assert.Equal(t, 10, cfg.DB.MaxConns, "valor inválido usa el defecto")
	assert.Equal(t, "0.0.0.0:9000", cfg.HTTP.Addr())
}

func TestLoad_ReorderPointInvalido(t *testing.T) {
	t.Setenv("FINAL_PRODUCT_REORDER_POINT", "cinco")
	_, err := Load()
	assert.Error(t, err)
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:word", DBName: "costeo", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/costeo?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
