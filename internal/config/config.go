package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	// Data source
	DataSource DataSourceConfig

	// Fetch cache
	Cache CacheConfig

	// Redis
	Redis RedisConfig

	// Database sink
	Database DatabaseConfig

	// HTTP API
	API APIConfig
}

// DataSourceConfig holds remote data provider configuration
type DataSourceConfig struct {
	Provider    string // "fred" or "mock"
	APIKey      string
	BaseURL     string // FRED web service (used with an API key)
	GraphURL    string // FRED graph CSV download (used without an API key)
	HTTPTimeout time.Duration
	UserAgent   string
}

// CacheConfig holds fetch cache configuration
type CacheConfig struct {
	Type string // "none", "memory" or "redis"
	TTL  time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	KeyPrefix    string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Enabled         bool
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxConnections  int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// APIConfig holds HTTP API configuration
type APIConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimitRPS int  // per client; 0 disables limiting
	TrustProxy   bool // key clients by X-Forwarded-For / X-Real-IP
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "warn"),
		DataSource: DataSourceConfig{
			Provider:    getEnv("DATA_SOURCE", "fred"),
			APIKey:      getEnv("FRED_API_KEY", ""),
			BaseURL:     getEnv("FRED_BASE_URL", "https://api.stlouisfed.org/fred"),
			GraphURL:    getEnv("FRED_GRAPH_URL", "https://fred.stlouisfed.org/graph/fredgraph.csv"),
			HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 30*time.Second),
			UserAgent:   getEnv("HTTP_USER_AGENT", "tifft"),
		},
		Cache: CacheConfig{
			Type: getEnv("CACHE_TYPE", "none"),
			TTL:  getEnvAsDuration("CACHE_TTL", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 2),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "tifft:series:"),
		},
		Database: DatabaseConfig{
			Enabled:         getEnvAsBool("DB_ENABLED", false),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Database:        getEnv("DB_NAME", "tifft"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxConnections:  getEnvAsInt("DB_MAX_CONNECTIONS", 5),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			Port:         getEnvAsInt("API_PORT", 8090),
			ReadTimeout:  getEnvAsDuration("API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("API_WRITE_TIMEOUT", 60*time.Second),
			RateLimitRPS: getEnvAsInt("API_RATE_LIMIT_RPS", 20),
			TrustProxy:   getEnvAsBool("API_TRUST_PROXY", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DataSource.Provider == "" {
		return fmt.Errorf("DATA_SOURCE is required")
	}
	if c.DataSource.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Cache.Type {
	case "none", "memory":
	case "redis":
		if c.Redis.Host == "" {
			return fmt.Errorf("REDIS_HOST is required when CACHE_TYPE=redis")
		}
	default:
		return fmt.Errorf("CACHE_TYPE must be one of none, memory, redis; got %q", c.Cache.Type)
	}
	if c.Database.Enabled && c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required when DB_ENABLED=true")
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("API_PORT must be a valid port, got %d", c.API.Port)
	}
	return nil
}

// DSN returns the lib/pq connection string
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Addr returns the Redis address
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
