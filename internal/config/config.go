package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port        string
	Environment string
	LogLevel    string

	GoogleClientID     string
	GoogleClientSecret string
	JWTSecret          string

	FrontendURL      string
	AdminURL         string
	AllowedOrigins   []string
	OAuthRedirectURL string
	OAuthHTTPTimeout time.Duration

	DatabaseURL       string
	DatabaseAuthToken string
	RedisURL          string

	StateBinding  string
	AuthRateLimit float64
	AuthRateBurst int

	// TrustProxy honours X-Forwarded-Proto and X-Forwarded-For. Enable only
	// behind a proxy that overwrites them.
	TrustProxy bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	timeout, err := getDurationEnv("OAUTH_HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	rateLimit, err := getFloatEnv("AUTH_RATE_LIMIT", 5)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:               getEnv("PORT", "8787"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		FrontendURL:        strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:4321"), "/"),
		AdminURL:           strings.TrimRight(getEnv("ADMIN_URL", ""), "/"),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", ""),
		OAuthHTTPTimeout:   timeout,
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DatabaseAuthToken:  getEnv("DATABASE_AUTH_TOKEN", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		StateBinding:       getEnv("STATE_BINDING", "none"),
		AuthRateLimit:      rateLimit,
		AuthRateBurst:      getIntEnv("AUTH_RATE_BURST", 10),
		TrustProxy:         getBoolEnv("TRUST_PROXY", false),
	}, nil
}

// Validate reports settings the service cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if _, err := url.ParseRequestURI(c.FrontendURL); err != nil {
		errs = append(errs, fmt.Errorf("FRONTEND_URL is invalid: %w", err))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs locally
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// FrontendOrigins returns every front-end origin a login may return to,
// default first
func (c *Config) FrontendOrigins() []string {
	origins := []string{c.FrontendURL}
	if c.AdminURL != "" {
		origins = append(origins, c.AdminURL)
	}
	for _, o := range c.AllowedOrigins {
		origins = append(origins, strings.TrimRight(o, "/"))
	}
	return origins
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive number, got %q", key, value)
	}
	return parsed, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, value)
	}
	return parsed, nil
}
