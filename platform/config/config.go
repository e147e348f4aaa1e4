// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverRedis    = "redis"
)

// Read policies for the search scan (SEARCH_READ_POLICY).
//
// The default, caller, scans with the requester's own visibility: guests do
// not see deleted topics or restricted categories. Deployments migrating from
// the NodeBB custom-search plugin, which always scanned as the first member of
// the administrators group, get that behavior back with elevated.
const (
	ReadPolicyCaller   = "caller"
	ReadPolicyElevated = "elevated"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMigrate() bool
}

// RedisConfig provides Redis connection settings.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// StoreConfig selects the forum data backend.
type StoreConfig interface {
	DatabaseConfig
	RedisConfig
	GetStoreDriver() string
}

// JWTConfig provides JWT validation settings for middleware.
// An empty secret disables token parsing; every caller is then a guest.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RateLimitConfig provides settings for the search endpoint rate limiter.
type RateLimitConfig interface {
	GetSearchRateLimitPerMinute() int
	GetSearchRateLimitBurst() int
}

// SearchConfig provides the scan bounds and read policy.
type SearchConfig interface {
	GetSearchMaxTopics() int
	GetSearchMaxRepliesPerTopic() int
	GetSearchBatchSize() int
	GetSearchResultCap() int
	GetSearchFetchConcurrency() int
	GetSearchSnippetLeft() int
	GetSearchSnippetRight() int
	GetSearchReadPolicy() string
	GetSearchPrivilegedGroup() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env              string
	HTTPAddr         string
	StoreDriver      string
	DatabaseURL      string
	DatabaseMigrate  bool
	RedisURL         string
	RedisTLSInsecure bool
	JWTAccessSecret  string
	CORSAllowAll     bool
	CORSOrigins      []string
	CORSAllowCreds   bool

	SearchMaxTopics          int
	SearchMaxRepliesPerTopic int
	SearchBatchSize          int
	SearchResultCap          int
	SearchFetchConcurrency   int
	SearchSnippetLeft        int
	SearchSnippetRight       int
	SearchReadPolicy         string
	SearchPrivilegedGroup    string
	SearchRateLimitPerMinute int
	SearchRateLimitBurst     int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string   { return c.DatabaseURL }
func (c *Config) GetDatabaseMigrate() bool { return c.DatabaseMigrate }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// StoreConfig implementation
func (c *Config) GetStoreDriver() string { return c.StoreDriver }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RateLimitConfig implementation
func (c *Config) GetSearchRateLimitPerMinute() int { return c.SearchRateLimitPerMinute }
func (c *Config) GetSearchRateLimitBurst() int     { return c.SearchRateLimitBurst }

// SearchConfig implementation
func (c *Config) GetSearchMaxTopics() int          { return c.SearchMaxTopics }
func (c *Config) GetSearchMaxRepliesPerTopic() int { return c.SearchMaxRepliesPerTopic }
func (c *Config) GetSearchBatchSize() int          { return c.SearchBatchSize }
func (c *Config) GetSearchResultCap() int          { return c.SearchResultCap }
func (c *Config) GetSearchFetchConcurrency() int   { return c.SearchFetchConcurrency }
func (c *Config) GetSearchSnippetLeft() int        { return c.SearchSnippetLeft }
func (c *Config) GetSearchSnippetRight() int       { return c.SearchSnippetRight }
func (c *Config) GetSearchReadPolicy() string      { return c.SearchReadPolicy }
func (c *Config) GetSearchPrivilegedGroup() string { return c.SearchPrivilegedGroup }

// Load reads configuration from environment variables (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4567"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:              getEnv("APP_ENV", "development"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		StoreDriver:      strings.ToLower(strings.TrimSpace(getEnv("STORE_DRIVER", StoreDriverPostgres))),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DatabaseMigrate:  strings.EqualFold(getEnv("DATABASE_MIGRATE", "true"), "true"),
		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		JWTAccessSecret:  getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:     corsAllowAll,
		CORSOrigins:      corsOrigins,
		CORSAllowCreds:   strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),

		SearchMaxTopics:          mustInt(getEnv("SEARCH_MAX_TOPICS", "1000"), 1000),
		SearchMaxRepliesPerTopic: mustInt(getEnv("SEARCH_MAX_REPLIES_PER_TOPIC", "5"), 5),
		SearchBatchSize:          mustInt(getEnv("SEARCH_BATCH_SIZE", "200"), 200),
		SearchResultCap:          mustInt(getEnv("SEARCH_RESULT_CAP", "50"), 50),
		SearchFetchConcurrency:   mustInt(getEnv("SEARCH_FETCH_CONCURRENCY", "8"), 8),
		SearchSnippetLeft:        mustInt(getEnv("SEARCH_SNIPPET_LEFT", "60"), 60),
		SearchSnippetRight:       mustInt(getEnv("SEARCH_SNIPPET_RIGHT", "120"), 120),
		SearchReadPolicy:         strings.ToLower(strings.TrimSpace(getEnv("SEARCH_READ_POLICY", ReadPolicyCaller))),
		SearchPrivilegedGroup:    getEnv("SEARCH_PRIVILEGED_GROUP", "administrators"),
		SearchRateLimitPerMinute: mustInt(getEnv("SEARCH_RATE_LIMIT_PER_MINUTE", "60"), 60),
		SearchRateLimitBurst:     mustInt(getEnv("SEARCH_RATE_LIMIT_BURST", "10"), 10),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_DRIVER is postgres")
		}
	case StoreDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when STORE_DRIVER is redis")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverRedis, c.StoreDriver)
	}

	switch c.SearchReadPolicy {
	case ReadPolicyCaller, ReadPolicyElevated:
	default:
		return fmt.Errorf("SEARCH_READ_POLICY must be %q or %q, got %q", ReadPolicyCaller, ReadPolicyElevated, c.SearchReadPolicy)
	}

	if c.SearchMaxTopics < 1 || c.SearchBatchSize < 1 || c.SearchResultCap < 1 || c.SearchFetchConcurrency < 1 {
		return fmt.Errorf("SEARCH_MAX_TOPICS, SEARCH_BATCH_SIZE, SEARCH_RESULT_CAP and SEARCH_FETCH_CONCURRENCY must be positive")
	}
	if c.SearchMaxRepliesPerTopic < 0 || c.SearchSnippetLeft < 0 || c.SearchSnippetRight < 0 {
		return fmt.Errorf("SEARCH_MAX_REPLIES_PER_TOPIC and snippet paddings cannot be negative")
	}
	if c.SearchRateLimitPerMinute < 1 || c.SearchRateLimitBurst < 1 {
		return fmt.Errorf("SEARCH_RATE_LIMIT_PER_MINUTE and SEARCH_RATE_LIMIT_BURST must be positive")
	}
	if !c.CORSAllowAll && len(c.CORSOrigins) == 0 {
		return fmt.Errorf("CORS_ORIGINS is required unless CORS_ALLOW_ALL is true")
	}
	if c.CORSAllowAll && c.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustInt(value string, fallback int) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
