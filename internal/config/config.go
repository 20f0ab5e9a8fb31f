/**
 * @description
 * Configuration loader for the NOKA Daily Puzzle backend.
 * Responsible for reading environment variables, setting defaults, and performing strict validation.
 *
 * @dependencies
 * - github.com/joho/godotenv: For loading .env files
 * - standard "os": For reading env vars
 * - standard "fmt": For error reporting
 *
 * @notes
 * - Fails fast if DATABASE_URL is missing.
 * - FMP_API_KEY is deliberately NOT validated here: the generator run aborts itself
 *   when the key is absent, so the API can still boot and serve sessions.
 */

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	Market   MarketConfig
	Puzzle   PuzzleConfig
	Services ServicesConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
	Env  string // "development" or "production"
}

// DBConfig holds PostgreSQL settings
type DBConfig struct {
	URL string
}

// RedisConfig holds Redis settings
type RedisConfig struct {
	URL string
}

// MarketConfig holds the quote provider endpoint and credential
type MarketConfig struct {
	FMPBaseURL string
	FMPAPIKey  string
}

// PuzzleConfig holds daily puzzle scheduling settings
type PuzzleConfig struct {
	// Timezone is the IANA zone the DateKey axis is pinned to.
	Timezone string
	// GenerateAt is the local wall-clock time ("HH:MM") the loop-mode
	// generator fires at. External cron setups can ignore it.
	GenerateAt string
}

// ServicesConfig holds external service keys (Auth, etc.)
type ServicesConfig struct {
	ClerkSecretKey string
	ClerkJWKSURL   string // URL to fetch JSON Web Key Set for JWT validation
}

// Load reads .env file and populates the Config struct
func Load() (*Config, error) {
	// Attempt to load .env, but don't crash if it fails (k8s/prod might inject env vars directly)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("GO_ENV", "development"),
		},
		DB: DBConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Market: MarketConfig{
			FMPBaseURL: getEnv("FMP_BASE_URL", "https://financialmodelingprep.com/stable"),
			FMPAPIKey:  sanitizeCredential(getEnv("FMP_API_KEY", "")),
		},
		Puzzle: PuzzleConfig{
			Timezone:   getEnv("PUZZLE_TIMEZONE", "America/New_York"),
			GenerateAt: getEnv("PUZZLE_GENERATE_AT", "01:00"),
		},
		Services: ServicesConfig{
			ClerkSecretKey: getEnv("CLERK_SECRET_KEY", ""),
			ClerkJWKSURL:   getEnv("CLERK_JWKS_URL", ""),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Location resolves the configured puzzle timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Puzzle.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid PUZZLE_TIMEZONE %q: %w", c.Puzzle.Timezone, err)
	}
	return loc, nil
}

// validate checks for required variables
func validate(cfg *Config) error {
	if cfg.DB.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if _, err := time.Parse("15:04", cfg.Puzzle.GenerateAt); err != nil {
		return fmt.Errorf("PUZZLE_GENERATE_AT must be HH:MM, got %q", cfg.Puzzle.GenerateAt)
	}
	if cfg.Services.ClerkJWKSURL == "" && cfg.Server.Env != "test" {
		// Warning: strictly required for Auth middleware
		fmt.Println("Warning: CLERK_JWKS_URL is missing. Auth middleware will fail.")
	}
	return nil
}

// Helper to get env var with default
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func sanitizeCredential(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.Trim(trimmed, "\"")
}
