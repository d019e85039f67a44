// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
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

// GeocoderConfig provides settings for the external place-lookup provider.
type GeocoderConfig interface {
	GetGeocoderBaseURL() string
	GetGeocoderUserAgent() string
	GetGeocoderCountry() string
	GetGeocoderTimeout() time.Duration
}

// RedisConfig provides settings for the optional geocoder response cache.
type RedisConfig interface {
	GetRedisURL() string
	GetGeocoderCacheTTL() time.Duration
	IsGeocoderCacheEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	DatabaseURL       string
	JWTAccessSecret   string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocoderCountry   string
	GeocoderTimeout   time.Duration
	RedisURL          string
	GeocoderCacheTTL  time.Duration
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// GeocoderConfig implementation
func (c *Config) GetGeocoderBaseURL() string        { return c.GeocoderBaseURL }
func (c *Config) GetGeocoderUserAgent() string      { return c.GeocoderUserAgent }
func (c *Config) GetGeocoderCountry() string        { return c.GeocoderCountry }
func (c *Config) GetGeocoderTimeout() time.Duration { return c.GeocoderTimeout }

// RedisConfig implementation
func (c *Config) GetRedisURL() string                { return c.RedisURL }
func (c *Config) GetGeocoderCacheTTL() time.Duration { return c.GeocoderCacheTTL }
func (c *Config) IsGeocoderCacheEnabled() bool       { return c.RedisURL != "" }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	geocoderTimeout, err := parseDuration("GEOCODER_TIMEOUT", getEnv("GEOCODER_TIMEOUT", "5s"))
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("GEOCODER_CACHE_TTL", getEnv("GEOCODER_CACHE_TTL", "24h"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8000"),
		DatabaseURL:       getEnv("DATABASE_URL", ""),
		JWTAccessSecret:   getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		GeocoderBaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "marketplace-backend/1.0"),
		GeocoderCountry:   strings.ToLower(getEnv("GEOCODER_COUNTRY", "br")),
		GeocoderTimeout:   geocoderTimeout,
		RedisURL:          getEnv("REDIS_URL", ""),
		GeocoderCacheTTL:  cacheTTL,
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// parseDuration accepts Go duration syntax, or a bare number of seconds.
func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err == nil {
		return d, nil
	}
	if secs, convErr := strconv.Atoi(value); convErr == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return 0, fmt.Errorf("%s: invalid duration %q", name, value)
}
