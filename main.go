package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"btc-data-api/internal/api"
	"btc-data-api/internal/cache"
	"btc-data-api/internal/config"
	"btc-data-api/internal/logger"
	"btc-data-api/internal/platform"
	"btc-data-api/internal/ratelimit"
	"btc-data-api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)

	// Select the cache backend
	store := newCacheStore(cfg, logger)

	// Initialize services
	gateway := service.NewGateway(cfg, logger, store)
	rateLimiter := ratelimit.NewLimiter(cfg, logger)

	// Initialize HTTP handlers
	handlerConfig := api.HandlerConfig{
		Logger:      logger,
		Gateway:     gateway,
		RateLimiter: rateLimiter,
	}
	handlers := api.NewHandlers(handlerConfig)

	// Setup Gin router
	router := handlers.SetupRoutes()

	// Setup HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting gateway on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Create a shutdown context that works across platforms
	shutdownCtx, stop := platform.NewShutdownContext(context.Background())
	defer stop()
	<-shutdownCtx.Done()

	logger.Info("Shutting down server...")

	// Stop rate limiter cleanup and the cache backend
	rateLimiter.Stop()
	store.Stop()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// newCacheStore builds the configured cache backend, falling back to the
// in-memory store when Redis is unreachable at startup
func newCacheStore(cfg *config.Config, logger logger.Logger) cache.Store {
	if cfg.CacheBackend == config.CacheBackendRedis {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddr,
			DB:   cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warnf("Redis unreachable at %s, falling back to in-memory cache: %v", cfg.RedisAddr, err)
			client.Close()
			return cache.NewMemoryStore()
		}

		logger.Info("Using Redis cache backend at " + cfg.RedisAddr)
		return cache.NewRedisStore(client, logger)
	}

	logger.Info("Using in-memory cache backend")
	return cache.NewMemoryStore()
}
