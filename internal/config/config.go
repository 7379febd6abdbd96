package config

import (
	"fmt"
	"log/slog"
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
	Suggest    SuggestConfig
	Cache      CacheConfig
	Listing    ListingConfig
	Parser     ParserConfig
	Embedding  EmbeddingConfig
	Logging    LoggingConfig
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, wins over the individual fields
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
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// SuggestConfig holds autocomplete suggestion settings
type SuggestConfig struct {
	DefaultLimit   int
	MaxLimit       int
	MaxQueryLength int
}

// CacheConfig holds the suggestion result cache settings
type CacheConfig struct {
	TTL           time.Duration
	SoftCeiling   int
	Capacity      int
	SweepInterval time.Duration
}

// ListingConfig holds property listing pagination settings
type ListingConfig struct {
	DefaultPageSize int
	MaxPageSize     int
}

// ParserConfig holds query parser settings
type ParserConfig struct {
	RuleOrder       []string
	RefreshInterval time.Duration
}

// EmbeddingConfig holds property embedding settings
type EmbeddingConfig struct {
	Dimensions int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// DefaultRuleOrder is the precedence in which the query parser applies its rules.
var DefaultRuleOrder = []string{"bedrooms", "property_type", "price", "location"}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "estate"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnvAsList("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
			AllowedHeaders: getEnvAsList("CORS_ALLOWED_HEADERS", "Content-Type,Authorization,X-Request-ID"),
		},
		Suggest: SuggestConfig{
			DefaultLimit:   getEnvAsInt("SUGGEST_DEFAULT_LIMIT", 8),
			MaxLimit:       getEnvAsInt("SUGGEST_MAX_LIMIT", 20),
			MaxQueryLength: getEnvAsInt("SUGGEST_MAX_QUERY_LENGTH", 100),
		},
		Cache: CacheConfig{
			TTL:           getEnvAsDuration("SUGGEST_CACHE_TTL", 5*time.Minute),
			SoftCeiling:   getEnvAsInt("SUGGEST_CACHE_SOFT_CEILING", 100),
			Capacity:      getEnvAsInt("SUGGEST_CACHE_CAPACITY", 1000),
			SweepInterval: getEnvAsDuration("SUGGEST_CACHE_SWEEP_INTERVAL", time.Minute),
		},
		Listing: ListingConfig{
			DefaultPageSize: getEnvAsInt("LISTING_DEFAULT_PAGE_SIZE", 12),
			MaxPageSize:     getEnvAsInt("LISTING_MAX_PAGE_SIZE", 50),
		},
		Parser: ParserConfig{
			RuleOrder:       getEnvAsList("PARSER_RULE_ORDER", strings.Join(DefaultRuleOrder, ",")),
			RefreshInterval: getEnvAsDuration("VOCABULARY_REFRESH_INTERVAL", 10*time.Minute),
		},
		Embedding: EmbeddingConfig{
			Dimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 1536),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	known := make(map[string]bool, len(DefaultRuleOrder))
	for _, r := range DefaultRuleOrder {
		known[r] = true
	}
	seen := make(map[string]bool, len(c.Parser.RuleOrder))
	for _, r := range c.Parser.RuleOrder {
		if !known[r] {
			return fmt.Errorf("unknown parser rule %q in PARSER_RULE_ORDER", r)
		}
		if seen[r] {
			return fmt.Errorf("duplicate parser rule %q in PARSER_RULE_ORDER", r)
		}
		seen[r] = true
	}
	if c.Suggest.DefaultLimit <= 0 || c.Suggest.MaxLimit < c.Suggest.DefaultLimit {
		return fmt.Errorf("invalid suggestion limits: default %d, max %d", c.Suggest.DefaultLimit, c.Suggest.MaxLimit)
	}
	if c.Cache.SoftCeiling > c.Cache.Capacity {
		return fmt.Errorf("cache soft ceiling %d exceeds capacity %d", c.Cache.SoftCeiling, c.Cache.Capacity)
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

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer value, using default", slog.String("key", key), slog.Int("default", defaultValue))
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration value, using default", slog.String("key", key), slog.Duration("default", defaultValue))
		return defaultValue
	}
	return value
}

func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
