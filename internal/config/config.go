// Package config provides application configuration loaded from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Auth      AuthConfig
	Currency  CurrencyConfig
	Analytics AnalyticsConfig
	Redis     RedisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
	// RateLimit is the number of mutating API calls allowed per second and session.
	RateLimit float64
	RateBurst int
}

// DatabaseConfig holds connection settings. Driver is "postgres" or "sqlite".
type DatabaseConfig struct {
	Driver   string
	Path     string // sqlite file
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev        bool
	Migrations bool
	Seed       bool
	LogLevel   string
}

// AuthConfig holds session and Google sign-in settings.
type AuthConfig struct {
	SessionSecret      string
	SessionTTL         time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	AdminEmails        []string
}

// CurrencyConfig holds the exchange-rate source.
type CurrencyConfig struct {
	APIKey       string
	BaseURL      string
	Schedule     string
	FallbackRate float64
}

// AnalyticsConfig holds PostHog credentials.
type AnalyticsConfig struct {
	Host      string
	APIKey    string
	ProjectID string
}

// RedisConfig enables redis-backed mirror storage when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DSN returns the PostgreSQL connection string in key=value format.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// URL returns the PostgreSQL connection string in URL format.
func (d DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	port := getEnv("PORT", "8080")
	return &Config{
		Server: ServerConfig{
			Port:         port,
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvFloat("RATE_LIMIT", 5),
			RateBurst:    getEnvInt("RATE_BURST", 20),
		},
		Database: DatabaseConfig{
			Driver:   getEnv("DB_DRIVER", "postgres"),
			Path:     getEnv("DB_PATH", "ledger.db"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "ledger"),
			Password: getEnv("DB_PASSWORD", "ledger123"),
			DBName:   getEnv("DB_NAME", "ledger"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		App: AppConfig{
			Dev:        getEnvBool("DEV", true),
			Migrations: getEnvBool("MIGRATIONS", false),
			Seed:       getEnvBool("DB_SEED", false),
			LogLevel:   getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:      getEnv("SESSION_SECRET", "devsessionsecret"),
			SessionTTL:         time.Duration(getEnvInt("SESSION_TTL_HOURS", 24*14)) * time.Hour,
			GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "http://localhost:"+port+"/auth/google/callback"),
			AdminEmails:        getEnvList("ADMIN_EMAILS"),
		},
		Currency: CurrencyConfig{
			APIKey:       getEnv("EXCHANGE_RATE_API_KEY", ""),
			BaseURL:      getEnv("EXCHANGE_RATE_API_URL", "https://v6.exchangerate-api.com/v6"),
			Schedule:     getEnv("EXCHANGE_RATE_SCHEDULE", "@every 1h"),
			FallbackRate: getEnvFloat("EXCHANGE_RATE_FALLBACK", 1470),
		},
		Analytics: AnalyticsConfig{
			Host:      getEnv("POSTHOG_HOST", "https://us.posthog.com"),
			APIKey:    getEnv("POSTHOG_PERSONAL_API_KEY", ""),
			ProjectID: getEnv("POSTHOG_PROJECT_ID", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
	}
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default.
// Accepts "1", "true", "yes" as true; everything else is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	value = strings.ToLower(value)
	return value == "1" || value == "true" || value == "yes"
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
