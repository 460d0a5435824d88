package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/flakestry/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Search        SearchConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	ConnTimeout time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// SearchConfig holds search engine configuration
type SearchConfig struct {
	URL   string
	Index string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("FLAKESTRY_HOST", "0.0.0.0"),
			Port:            getEnv("FLAKESTRY_PORT", "3000"),
			ReadTimeout:     getEnvDuration("FLAKESTRY_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("FLAKESTRY_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("FLAKESTRY_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("FLAKESTRY_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("FLAKESTRY_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:         getEnv("DATABASE_URL", ""),
			MaxConns:    getEnvInt("FLAKESTRY_POSTGRES_MAX_CONNS", 20),
			MinConns:    getEnvInt("FLAKESTRY_POSTGRES_MIN_CONNS", 2),
			ConnTimeout: getEnvDuration("FLAKESTRY_POSTGRES_TIMEOUT", 10*time.Second),
			MaxLifetime: getEnvDuration("FLAKESTRY_POSTGRES_MAX_LIFETIME", 1*time.Hour),
			MaxIdleTime: getEnvDuration("FLAKESTRY_POSTGRES_MAX_IDLE_TIME", 10*time.Minute),
		},
		Search: SearchConfig{
			URL:   getEnv("FLAKESTRY_OPENSEARCH_URL", "http://localhost:9200"),
			Index: getEnv("FLAKESTRY_OPENSEARCH_INDEX", "flakes"),
		},
		Observability: ObservabilityConfig{
			LogLevel:           parseLogLevel(getEnv("FLAKESTRY_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("FLAKESTRY_METRICS_ENABLED", true),
			OTelEnabled:        getEnvBool("FLAKESTRY_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("FLAKESTRY_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("FLAKESTRY_OTEL_SERVICE_NAME", "flakestry"),
			OTelServiceVersion: getEnv("FLAKESTRY_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("FLAKESTRY_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Search.URL == "" {
		return fmt.Errorf("opensearch URL is required")
	}
	if c.Search.Index == "" {
		return fmt.Errorf("opensearch index is required")
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
