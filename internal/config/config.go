package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	BaseURL     string

	// Database
	DatabaseURL string

	// Auth
	JWTSecret string

	// Idempotency store
	RedisURL string

	// Delivery sinks
	MailerAPIBaseURL string
	MailerAPIKey     string
	PushAPIBaseURL   string
	PushAPIKey       string

	// Escrow
	CommissionPercent float64
	Currency          string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		RedisURL: getEnv("REDIS_URL", ""),

		MailerAPIBaseURL: getEnv("MAILER_API_BASE_URL", ""),
		MailerAPIKey:     getEnv("MAILER_API_KEY", ""),
		PushAPIBaseURL:   getEnv("PUSH_API_BASE_URL", ""),
		PushAPIKey:       getEnv("PUSH_API_KEY", ""),

		CommissionPercent: getEnvFloat("PLATFORM_COMMISSION_PERCENT", 5),
		Currency:          getEnv("DEFAULT_CURRENCY", "INR"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.CommissionPercent < 0 || c.CommissionPercent > 100 {
		return fmt.Errorf("PLATFORM_COMMISSION_PERCENT must be between 0 and 100")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
