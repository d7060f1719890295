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
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Catalog    CatalogConfig
	Ranking    RankingConfig
	Logging    LoggingConfig
	Redis      RedisConfig
	Chat       ChatConfig

	// Warnings collects malformed values that fell back to defaults
	Warnings []string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            int
	Host            string
	GinMode         string
	AllowedOrigins  []string
	AllowedMethods  []string
	AllowedHeaders  []string
	ShutdownTimeout time.Duration
}

// CatalogConfig holds product listing configuration
type CatalogConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	ChatResultLimit int
}

// RankingConfig holds weights for the relevance sort
type RankingConfig struct {
	WeightRating  float64
	WeightPrice   float64
	WeightRecency float64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// RedisConfig holds catalog cache configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
	Enabled  bool
}

// ChatConfig holds chatbot endpoint configuration
type ChatConfig struct {
	UserHeader string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	l := &loader{}
	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                l.getEnv("DATABASE_URL", l.getEnv("POSTGRESQL_URI", l.getEnv("PG_DSN", ""))),
			Host:               l.getEnv("PG_HOST", "localhost"),
			Port:               l.getEnvAsInt("PG_PORT", 5432),
			User:               l.getEnv("PG_USER", "postgres"),
			Password:           l.getEnv("PG_PASSWORD", ""),
			Database:           l.getEnv("PG_DATABASE", "shopassist"),
			SSLMode:            l.getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     l.getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: l.getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:            l.getEnvAsInt("SERVER_PORT", 8000),
			Host:            l.getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:         l.getEnv("GIN_MODE", "release"),
			AllowedOrigins:  l.getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods:  l.getEnvAsList("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders:  l.getEnvAsList("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-User-ID"),
			ShutdownTimeout: l.getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Catalog: CatalogConfig{
			DefaultPageSize: l.getEnvAsInt("CATALOG_DEFAULT_PAGE_SIZE", 10),
			MaxPageSize:     l.getEnvAsInt("CATALOG_MAX_PAGE_SIZE", 50),
			ChatResultLimit: l.getEnvAsInt("CHAT_RESULT_LIMIT", 10),
		},
		Ranking: RankingConfig{
			WeightRating:  l.getEnvAsFloat("RANK_WEIGHT_RATING", 0.5),
			WeightPrice:   l.getEnvAsFloat("RANK_WEIGHT_PRICE", 0.3),
			WeightRecency: l.getEnvAsFloat("RANK_WEIGHT_RECENCY", 0.2),
		},
		Logging: LoggingConfig{
			Level:  l.getEnv("LOG_LEVEL", "info"),
			Format: l.getEnv("LOG_FORMAT", "json"),
		},
		Redis: RedisConfig{
			Addr:     l.getEnv("REDIS_ADDR", ""),
			Password: l.getEnv("REDIS_PASSWORD", ""),
			DB:       l.getEnvAsInt("REDIS_DB", 0),
			TTL:      l.getEnvAsDuration("REDIS_CACHE_TTL", 5*time.Minute),
		},
		Chat: ChatConfig{
			UserHeader: l.getEnv("CHAT_USER_HEADER", "X-User-ID"),
		},
	}
	cfg.Redis.Enabled = cfg.Redis.Addr != "" && l.getEnvAsBool("REDIS_ENABLED", true)
	cfg.Warnings = l.warnings

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would make the server misbehave
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT out of range: %d", c.Server.Port)
	}
	if c.Catalog.DefaultPageSize <= 0 {
		return fmt.Errorf("CATALOG_DEFAULT_PAGE_SIZE must be positive, got %d", c.Catalog.DefaultPageSize)
	}
	if c.Catalog.MaxPageSize < c.Catalog.DefaultPageSize {
		return fmt.Errorf("CATALOG_MAX_PAGE_SIZE (%d) is smaller than CATALOG_DEFAULT_PAGE_SIZE (%d)",
			c.Catalog.MaxPageSize, c.Catalog.DefaultPageSize)
	}
	if c.Catalog.ChatResultLimit <= 0 {
		return fmt.Errorf("CHAT_RESULT_LIMIT must be positive, got %d", c.Catalog.ChatResultLimit)
	}
	if strings.TrimSpace(c.Chat.UserHeader) == "" {
		return fmt.Errorf("CHAT_USER_HEADER must not be empty")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

type loader struct {
	warnings []string
}

func (l *loader) warn(key, value string, def any) {
	l.warnings = append(l.warnings, fmt.Sprintf("invalid value %q for %s, using default %v", value, key, def))
}

func (l *loader) getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		l.warn(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		l.warn(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	switch strings.ToLower(valueStr) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		l.warn(key, valueStr, defaultValue)
		return defaultValue
	}
}

func (l *loader) getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		l.warn(key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

func (l *loader) getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(l.getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
