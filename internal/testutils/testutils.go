package testutils

import (
	"time"

	"btc-data-api/internal/config"
	"btc-data-api/internal/logger"
)

// MockLogger creates a quiet logger for testing
func MockLogger() logger.Logger {
	return logger.New("error")
}

// MockConfig creates a configuration for testing. Upstream base URLs point at
// upstreamURL so every provider resolves to the same mock server.
func MockConfig(upstreamURL string) *config.Config {
	return &config.Config{
		Port:     "8080",
		LogLevel: "error",

		CoinGeckoBaseURL:      upstreamURL,
		BlockstreamBaseURL:    upstreamURL,
		BlockchainInfoBaseURL: upstreamURL,
		UpstreamTimeout:       2 * time.Second,

		CacheBackend: config.CacheBackendMemory,

		RateLimitEnabled:  true,
		RateLimitRequests: 100,
		RateLimitWindow:   15 * time.Minute,
	}
}
