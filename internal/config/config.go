package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the library service
type Config struct {
	ServiceName string
	Env         string
	HTTPPort    string
	HTTPOpsPort string
	DBDriver    string
	DBDSN       string
	DBLogSQL    bool
	SeedData    bool
	RabbitMQURL string
	LogLevel    string
}

// Load reads an optional .env file and then builds the configuration
// from environment variables. Variables already set in the process
// environment take precedence over the file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "library"),
		Env:         getEnv("APP_ENV", "development"),
		HTTPPort:    getEnv("HTTP_PORT", "5002"),
		HTTPOpsPort: getEnv("HTTP_OPS_PORT", "8080"),
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
		DBDSN:       getEnv("DB_DSN", "data/library.sqlite"),
		DBLogSQL:    getEnvBool("DB_LOG_SQL", false),
		SeedData:    getEnvBool("SEED_DATA", true),
		RabbitMQURL: getEnv("RABBITMQ_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %q or %q)", c.DBDriver, DriverSQLite, DriverPostgres)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	for name, port := range map[string]string{"HTTP_PORT": c.HTTPPort, "HTTP_OPS_PORT": c.HTTPOpsPort} {
		n, err := strconv.Atoi(port)
		if err != nil || n < 1 || n > 65535 {
			return fmt.Errorf("invalid %s %q", name, port)
		}
	}
	if c.HTTPPort == c.HTTPOpsPort {
		return fmt.Errorf("HTTP_PORT and HTTP_OPS_PORT must differ")
	}
	return nil
}

// IsProduction reports whether the service runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// EventsEnabled reports whether catalog events go to RabbitMQ.
func (c *Config) EventsEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
