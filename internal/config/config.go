// Package config loads application configuration from the environment.
//
// Everything a component needs is passed in explicitly: the store time zone
// drives promotion calendar-date resolution, the category margin table drives
// suggested retail pricing at purchase time. No ambient globals.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is the root application configuration.
type Config struct {
	// HTTP
	Port            string
	ShutdownTimeout time.Duration

	// Persistence
	DatabaseURL string

	// Redis (promotion cache). Empty address disables the cache.
	RedisAddr     string
	RedisPassword string

	// Auth
	JWTSecret   string
	JWTTokenTTL time.Duration

	// Store parameters
	Store StoreConfig

	// Logging
	LogLevel    string
	Development bool
}

// StoreConfig holds retail parameters injected into pricing and purchasing.
type StoreConfig struct {
	// Timezone is the store's IANA time zone name. Promotions are compared as
	// calendar dates in this zone, never as UTC instants.
	Timezone *time.Location

	// FiadoDueDays is how many days a fiado receivable is due after the sale.
	FiadoDueDays int

	// CategoryMarkups maps category name to a markup fraction applied over
	// cost to suggest a retail price at purchase time (e.g. 0.30 = +30%).
	CategoryMarkups map[string]decimal.Decimal

	// DefaultMarkup applies when a product's category has no entry.
	DefaultMarkup decimal.Decimal
}

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	// Ignore missing .env; env vars may come from the deployment instead.
	_ = godotenv.Load()

	tzName := getEnv("STORE_TIMEZONE", "America/Sao_Paulo")
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load store timezone %q: %w", tzName, err)
	}

	markups, err := parseMarkups(os.Getenv("CATEGORY_MARKUPS"))
	if err != nil {
		return nil, fmt.Errorf("parse CATEGORY_MARKUPS: %w", err)
	}

	cfg := &Config{
		Port:            getEnv("APP_PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		JWTTokenTTL:     getEnvDuration("JWT_TOKEN_TTL", 12*time.Hour),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Development:     getEnv("APP_ENV", "development") == "development",
		Store: StoreConfig{
			Timezone:        tz,
			FiadoDueDays:    getEnvInt("FIADO_DUE_DAYS", 30),
			CategoryMarkups: markups,
			DefaultMarkup:   decimal.NewFromFloat(getEnvFloat("DEFAULT_MARKUP", 0.30)),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

// MarkupFor returns the markup fraction for a category.
func (s StoreConfig) MarkupFor(category string) decimal.Decimal {
	if m, ok := s.CategoryMarkups[category]; ok {
		return m
	}
	return s.DefaultMarkup
}

// parseMarkups parses a JSON object of category -> markup fraction.
// Example: {"Bebidas":0.40,"Limpeza":0.25}
func parseMarkups(raw string) (map[string]decimal.Decimal, error) {
	markups := make(map[string]decimal.Decimal)
	if raw == "" {
		return markups, nil
	}

	var parsed map[string]json.Number
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}
	for category, num := range parsed {
		d, err := decimal.NewFromString(num.String())
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", category, err)
		}
		markups[category] = d
	}
	return markups, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
