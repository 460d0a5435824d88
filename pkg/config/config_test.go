package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/flakestry/pkg/observability"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flakestry")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "postgres://localhost/flakestry", cfg.Database.URL)
	assert.Equal(t, 20, cfg.Database.MaxConns)
	assert.Equal(t, "http://localhost:9200", cfg.Search.URL)
	assert.Equal(t, "flakes", cfg.Search.Index)
	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.MetricsEnabled)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db.internal/flakestry")
	t.Setenv("FLAKESTRY_PORT", "8080")
	t.Setenv("FLAKESTRY_OPENSEARCH_URL", "http://search.internal:9200")
	t.Setenv("FLAKESTRY_OPENSEARCH_INDEX", "flakes-test")
	t.Setenv("FLAKESTRY_LOG_LEVEL", "debug")
	t.Setenv("FLAKESTRY_POSTGRES_MAX_CONNS", "50")
	t.Setenv("FLAKESTRY_READ_TIMEOUT", "5s")
	t.Setenv("FLAKESTRY_METRICS_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://search.internal:9200", cfg.Search.URL)
	assert.Equal(t, "flakes-test", cfg.Search.Index)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.Equal(t, 50, cfg.Database.MaxConns)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.False(t, cfg.Observability.MetricsEnabled)
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestValidatePortCollision(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flakestry")
	t.Setenv("FLAKESTRY_PORT", "9090")
	t.Setenv("FLAKESTRY_HEALTH_PORT", "9090")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  observability.LogLevel
	}{
		{"debug", observability.DebugLevel},
		{"info", observability.InfoLevel},
		{"warn", observability.WarnLevel},
		{"warning", observability.WarnLevel},
		{"error", observability.ErrorLevel},
		{"ERROR", observability.ErrorLevel},
		{"bogus", observability.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLogLevel(tt.input), tt.input)
	}
}
