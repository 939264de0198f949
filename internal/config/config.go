package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Ananth-NQI/carnego-backend/database"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Config is the service configuration read from the environment
type Config struct {
	Port          string
	Environment   string
	StoreBackend  string
	SessionTTL    time.Duration
	SweepInterval time.Duration
	LogLevel      string
	LogFormat     string
	PolicyFile    string
	SigningSecret string

	Postgres database.PostgresConfig
	MySQL    database.MySQLConfig
}

// LoadDotEnv loads .env for local development, falling back to environments/.env.development.
// It reports which file was loaded, or "" when neither exists.
func LoadDotEnv() string {
	for _, path := range []string{".env", "environments/.env.development"} {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		StoreBackend:  strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "json"),
		PolicyFile:    os.Getenv("POLICY_FILE"),
		SigningSecret: os.Getenv("REQUEST_SIGNING_SECRET"),
		Postgres: database.PostgresConfig{
			User:                   getEnv("DB_USER", "postgres"),
			Password:               os.Getenv("DB_PASS"),
			Name:                   getEnv("DB_NAME", "carnego"),
			Host:                   getEnv("DB_HOST", "localhost"),
			Port:                   getEnv("DB_PORT", "5432"),
			InstanceConnectionName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		},
		MySQL: database.MySQLConfig{
			User:     getEnv("MYSQL_USER", "user"),
			Password: getEnv("MYSQL_PWD", "password"),
			Addr:     getEnv("MYSQL_ADDR", "127.0.0.1:3306"),
			Name:     getEnv("MYSQL_DATABASE", "carnego"),
		},
	}

	// USE_MEMORY_STORE is the older switch, still honoured
	if os.Getenv("USE_MEMORY_STORE") == "true" {
		cfg.StoreBackend = BackendMemory
	}

	var err error
	if cfg.SessionTTL, err = getDuration("SESSION_TTL", 60*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = getDuration("SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMemory, BackendPostgres, BackendMySQL:
	default:
		return fmt.Errorf("STORE_BACKEND must be memory, postgres or mysql, got %q", c.StoreBackend)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
