package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"btc-data-api/internal/config"
	"btc-data-api/internal/logger"
)

// Limiter implements a fixed-window rate limiter per client IP. Every client
// gets at most RateLimitRequests admitted requests per RateLimitWindow,
// uniformly across all endpoints; the counter resets when the window elapses.
type Limiter struct {
	Configuration *config.Config
	logger        logger.Logger

	// Map of IP -> current window
	clientWindows map[string]*requestWindow
	windowsMutex  sync.Mutex

	// Cleanup goroutine control
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

// requestWindow tracks admitted requests for one client in the current window
type requestWindow struct {
	count   int
	resetAt time.Time
}

// NewLimiter creates a new rate limiter
func NewLimiter(configuration *config.Config, logger logger.Logger) *Limiter {
	rateLimiter := &Limiter{
		Configuration: configuration,
		logger:        logger,
		clientWindows: make(map[string]*requestWindow),
		cleanupTicker: time.NewTicker(5 * time.Minute),
		stopCleanup:   make(chan struct{}),
	}

	// Start cleanup goroutine
	go rateLimiter.cleanup()

	return rateLimiter
}

// Allow checks if a request from the given IP is admitted in the current
// window
func (rateLimiter *Limiter) Allow(clientIP string) bool {
	if !rateLimiter.Configuration.RateLimitEnabled {
		return true
	}

	rateLimiter.windowsMutex.Lock()
	defer rateLimiter.windowsMutex.Unlock()

	now := time.Now()
	window, exists := rateLimiter.clientWindows[clientIP]
	if !exists || now.After(window.resetAt) {
		rateLimiter.clientWindows[clientIP] = &requestWindow{
			count:   1,
			resetAt: now.Add(rateLimiter.Configuration.RateLimitWindow),
		}
		return true
	}

	if window.count >= rateLimiter.Configuration.RateLimitRequests {
		return false
	}

	window.count++
	return true
}

// ResetAt returns when the current window for the given IP rolls over, for
// the X-RateLimit-Reset header
func (rateLimiter *Limiter) ResetAt(clientIP string) time.Time {
	rateLimiter.windowsMutex.Lock()
	defer rateLimiter.windowsMutex.Unlock()

	if window, exists := rateLimiter.clientWindows[clientIP]; exists {
		return window.resetAt
	}
	return time.Now().Add(rateLimiter.Configuration.RateLimitWindow)
}

// GetClientIP extracts the real client IP from the request
func (rateLimiter *Limiter) GetClientIP(request *http.Request) string {
	// Check X-Forwarded-For header
	if xForwardedFor := request.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
		if clientIP := net.ParseIP(xForwardedFor); clientIP != nil {
			return clientIP.String()
		}
		// If multiple IPs, take the first one
		if host, _, err := net.SplitHostPort(xForwardedFor); err == nil {
			if clientIP := net.ParseIP(host); clientIP != nil {
				return clientIP.String()
			}
		}
	}

	// Check X-Real-IP header
	if xRealIP := request.Header.Get("X-Real-IP"); xRealIP != "" {
		if clientIP := net.ParseIP(xRealIP); clientIP != nil {
			return clientIP.String()
		}
	}

	// Fall back to RemoteAddr
	clientIP, _, parseError := net.SplitHostPort(request.RemoteAddr)
	if parseError != nil {
		return request.RemoteAddr
	}
	return clientIP
}

// cleanup removes elapsed windows to prevent memory leaks
func (rateLimiter *Limiter) cleanup() {
	for {
		select {
		case <-rateLimiter.cleanupTicker.C:
			rateLimiter.windowsMutex.Lock()
			now := time.Now()
			for clientIP, window := range rateLimiter.clientWindows {
				if now.After(window.resetAt) {
					delete(rateLimiter.clientWindows, clientIP)
				}
			}
			rateLimiter.windowsMutex.Unlock()
		case <-rateLimiter.stopCleanup:
			rateLimiter.cleanupTicker.Stop()
			return
		}
	}
}

// Stop stops the cleanup goroutine
func (rateLimiter *Limiter) Stop() {
	close(rateLimiter.stopCleanup)
}
