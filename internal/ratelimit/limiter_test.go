package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"btc-data-api/internal/testutils"
)

func TestNewLimiter(t *testing.T) {
	cfg := testutils.MockConfig("http://unused")
	limiter := NewLimiter(cfg, testutils.MockLogger())
	defer limiter.Stop()

	if limiter == nil {
		t.Fatal("NewLimiter() returned nil")
	}
	if limiter.clientWindows == nil {
		t.Error("NewLimiter() clientWindows is nil")
	}
}

func TestLimiter_Allow_WindowLimit(t *testing.T) {
	cfg := testutils.MockConfig("http://unused")
	cfg.RateLimitRequests = 100
	cfg.RateLimitWindow = 15 * time.Minute

	limiter := NewLimiter(cfg, testutils.MockLogger())
	defer limiter.Stop()

	// the 100th request is admitted, the 101st is rejected
	for i := 1; i <= 100; i++ {
		if !limiter.Allow("192.168.1.1") {
			t.Fatalf("Allow() request %d = false, want true", i)
		}
	}
	if limiter.Allow("192.168.1.1") {
		t.Error("Allow() request 101 = true, want false")
	}

	// other clients are unaffected
	if !limiter.Allow("192.168.1.2") {
		t.Error("Allow() for a different client = false, want true")
	}
}

func TestLimiter_Allow_WindowReset(t *testing.T) {
	cfg := testutils.MockConfig("http://unused")
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = 50 * time.Millisecond

	limiter := NewLimiter(cfg, testutils.MockLogger())
	defer limiter.Stop()

	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatal("Allow() within limit = false, want true")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("Allow() over limit = true, want false")
	}

	time.Sleep(60 * time.Millisecond)

	if !limiter.Allow("10.0.0.1") {
		t.Error("Allow() after window rollover = false, want true")
	}
}

func TestLimiter_Allow_Disabled(t *testing.T) {
	cfg := testutils.MockConfig("http://unused")
	cfg.RateLimitEnabled = false
	cfg.RateLimitRequests = 1

	limiter := NewLimiter(cfg, testutils.MockLogger())
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		if !limiter.Allow("192.168.1.1") {
			t.Fatal("Allow() with limiting disabled = false, want true")
		}
	}
}

func TestLimiter_GetClientIP(t *testing.T) {
	cfg := testutils.MockConfig("http://unused")
	limiter := NewLimiter(cfg, testutils.MockLogger())
	defer limiter.Stop()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name:       "X-Forwarded-For",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remoteAddr: "10.0.0.1:1234",
			expected:   "203.0.113.7",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "198.51.100.3"},
			remoteAddr: "10.0.0.1:1234",
			expected:   "198.51.100.3",
		},
		{
			name:       "RemoteAddr fallback",
			headers:    map[string]string{},
			remoteAddr: "192.0.2.9:5678",
			expected:   "192.0.2.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/price", nil)
			request.RemoteAddr = tt.remoteAddr
			for key, value := range tt.headers {
				request.Header.Set(key, value)
			}

			if got := limiter.GetClientIP(request); got != tt.expected {
				t.Errorf("GetClientIP() = %v, want %v", got, tt.expected)
			}
		})
	}
}
