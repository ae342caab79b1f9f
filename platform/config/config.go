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

// SchedulerConfig provides settings for the asynq scheduler process.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSweepInterval() time.Duration
}

// RoutingConfig provides settings for the external routing service.
type RoutingConfig interface {
	GetRoutingAPIKey() string
	GetRoutingBaseURL() string
	IsRoutingEnabled() bool
	GetGeocodeBaseURL() string
	GetGeocodeUserAgent() string
	GetGeocodeCountry() string
	GetTravelCacheTTL() time.Duration
}

// EmailConfig provides settings for email sending.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// DispatchConfig provides tunables for the dispatch core.
type DispatchConfig interface {
	GetHoldTTL() time.Duration
	GetDefaultBufferMinutes() int
	GetReminderLeadTime() time.Duration
	GetReminderWindow() time.Duration
	GetPhoneRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	RedisURL             string
	RedisTLSInsecure     bool
	AsynqQueueName       string
	AsynqConcurrency     int
	SweepInterval        time.Duration
	RoutingAPIKey        string
	RoutingBaseURL       string
	GeocodeBaseURL       string
	GeocodeUserAgent     string
	GeocodeCountry       string
	TravelCacheTTL       time.Duration
	EmailEnabled         bool
	SMTPHost             string
	SMTPPort             int
	SMTPUsername         string
	SMTPPassword         string
	EmailFromName        string
	EmailFromAddress     string
	HoldTTL              time.Duration
	DefaultBufferMinutes int
	ReminderLeadTime     time.Duration
	ReminderWindow       time.Duration
	PhoneRegion          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetSweepInterval() time.Duration { return c.SweepInterval }

// RoutingConfig implementation
func (c *Config) GetRoutingAPIKey() string         { return c.RoutingAPIKey }
func (c *Config) GetRoutingBaseURL() string        { return c.RoutingBaseURL }
func (c *Config) IsRoutingEnabled() bool           { return c.RoutingAPIKey != "" }
func (c *Config) GetGeocodeBaseURL() string        { return c.GeocodeBaseURL }
func (c *Config) GetGeocodeUserAgent() string      { return c.GeocodeUserAgent }
func (c *Config) GetGeocodeCountry() string        { return c.GeocodeCountry }
func (c *Config) GetTravelCacheTTL() time.Duration { return c.TravelCacheTTL }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// DispatchConfig implementation
func (c *Config) GetHoldTTL() time.Duration          { return c.HoldTTL }
func (c *Config) GetDefaultBufferMinutes() int       { return c.DefaultBufferMinutes }
func (c *Config) GetReminderLeadTime() time.Duration { return c.ReminderLeadTime }
func (c *Config) GetReminderWindow() time.Duration   { return c.ReminderWindow }
func (c *Config) GetPhoneRegion() string             { return c.PhoneRegion }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := getEnv("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "true"), "true")

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:       getEnv("ASYNQ_QUEUE", "dispatch"),
		AsynqConcurrency:     mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		SweepInterval:        mustDuration(getEnv("SWEEP_INTERVAL", "1h")),
		RoutingAPIKey:        getEnv("ROUTING_API_KEY", ""),
		RoutingBaseURL:       getEnv("ROUTING_BASE_URL", "https://maps.googleapis.com/maps/api/distancematrix/json"),
		GeocodeBaseURL:       getEnv("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org/search"),
		GeocodeUserAgent:     getEnv("GEOCODE_USER_AGENT", "DispatchApp/1.0"),
		GeocodeCountry:       getEnv("GEOCODE_COUNTRY", "nl"),
		TravelCacheTTL:       mustDuration(getEnv("TRAVEL_CACHE_TTL", "10m")),
		EmailEnabled:         emailEnabled && smtpHost != "",
		SMTPHost:             smtpHost,
		SMTPPort:             mustInt(getEnv("SMTP_PORT", "587")),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Dispatch"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", ""),
		HoldTTL:              mustDuration(getEnv("HOLD_TTL", "24h")),
		DefaultBufferMinutes: mustInt(getEnv("DEFAULT_BUFFER_MINUTES", "15")),
		ReminderLeadTime:     mustDuration(getEnv("REMINDER_LEAD_TIME", "24h")),
		ReminderWindow:       mustDuration(getEnv("REMINDER_WINDOW", "1h")),
		PhoneRegion:          getEnv("PHONE_REGION", "NL"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
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
