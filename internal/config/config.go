package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Cache backend selection values for Config.CacheBackend.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all configuration for the application
type Config struct {
	Port     string
	LogLevel string

	// Upstream data providers
	CoinGeckoBaseURL      string
	BlockstreamBaseURL    string
	BlockchainInfoBaseURL string
	UpstreamTimeout       time.Duration

	// Response cache
	CacheBackend string
	RedisAddr    string
	RedisDB      int

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		CoinGeckoBaseURL:      getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		BlockstreamBaseURL:    getEnv("BLOCKSTREAM_BASE_URL", "https://blockstream.info/api"),
		BlockchainInfoBaseURL: getEnv("BLOCKCHAIN_INFO_BASE_URL", "https://api.blockchain.info"),
		UpstreamTimeout:       time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 5)) * time.Second,

		CacheBackend: normalizeBackend(getEnv("CACHE_BACKEND", CacheBackendMemory)),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:      getEnvInt("REDIS_DB", 0),

		RateLimitEnabled:  getEnv("RATE_LIMIT_ENABLED", "true") == "true",
		RateLimitRequests: getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 900)) * time.Second,
	}, nil
}

// normalizeBackend folds unknown cache backend names to the in-memory default
func normalizeBackend(backend string) string {
	if strings.ToLower(backend) == CacheBackendRedis {
		return CacheBackendRedis
	}
	return CacheBackendMemory
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvInt gets an integer environment variable with a fallback value
func getEnvInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
