package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env string

	// API
	APIBaseURL        string
	RetryLimit        int
	RequestTimeout    time.Duration
	RefreshTimeout    time.Duration
	RequestsPerSecond float64

	// Local storage. Empty URLs select in-memory stores.
	DatabaseURL          string
	RedisURL             string
	CredentialsNamespace string

	// Mock API server
	MockPort       string
	JWTSecret      string
	MockUsername   string
	MockPassword   string
	AccessTokenTTL time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		Env:                  getEnvOrDefault("ENV", "development"),
		APIBaseURL:           getEnvOrDefault("API_BASE_URL", "http://localhost:8080"),
		RetryLimit:           getEnvAsIntOrDefault("RETRY_LIMIT", 3),
		RequestTimeout:       getEnvAsSecondsOrDefault("REQUEST_TIMEOUT_SECONDS", 15),
		RefreshTimeout:       getEnvAsSecondsOrDefault("REFRESH_TIMEOUT_SECONDS", 15),
		RequestsPerSecond:    getEnvAsFloatOrDefault("REQUESTS_PER_SECOND", 0),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		CredentialsNamespace: getEnvOrDefault("CREDENTIALS_NAMESPACE", "default"),
		MockPort:             getEnvOrDefault("MOCK_PORT", "8080"),
		JWTSecret:            getEnvOrDefault("JWT_SECRET", ""),
		MockUsername:         getEnvOrDefault("MOCK_USERNAME", "student@example.com"),
		MockPassword:         getEnvOrDefault("MOCK_PASSWORD", "password123"),
		AccessTokenTTL:       getEnvAsSecondsOrDefault("ACCESS_TOKEN_TTL_SECONDS", 900),
	}
}

// RequireJWTSecret returns the signing secret, panicking when it is unset.
// Only the mock server needs it.
func (c *Config) RequireJWTSecret() string {
	if c.JWTSecret == "" {
		return mustGetEnv("JWT_SECRET")
	}
	return c.JWTSecret
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return defaultVal
	}
	return f
}

func getEnvAsSecondsOrDefault(key string, defaultSeconds int) time.Duration {
	n := getEnvAsIntOrDefault(key, defaultSeconds)
	if n <= 0 {
		n = defaultSeconds
	}
	return time.Duration(n) * time.Second
}
