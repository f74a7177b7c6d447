package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"btc-data-api/internal/cache"
	"btc-data-api/internal/models"
	"btc-data-api/internal/service"
	"btc-data-api/internal/testutils"
)

// newIntegrationRouter wires the real gateway and an in-memory cache to a
// router, with every upstream pointed at the mock server
func newIntegrationRouter(t *testing.T, upstream *testutils.MockUpstream) *gin.Engine {
	t.Helper()

	store := cache.NewMemoryStore()
	t.Cleanup(store.Stop)

	gateway := service.NewGateway(testutils.MockConfig(upstream.URL()), testutils.MockLogger(), store)

	gin.SetMode(gin.TestMode)
	handlers := NewHandlers(HandlerConfig{
		Logger:  testutils.MockLogger(),
		Gateway: gateway,
	})
	return handlers.SetupRoutes()
}

func TestPriceEndToEnd(t *testing.T) {
	upstream := testutils.NewMockUpstream()
	defer upstream.Close()
	upstream.Handle("/simple/price", `{"bitcoin":{"usd":67234.5}}`)

	router := newIntegrationRouter(t, upstream)

	recorder := performRequest(router, "/price")
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var priceResponse models.PriceResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &priceResponse); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if priceResponse.Price != 67234.5 {
		t.Errorf("Expected price 67234.5, got %v", priceResponse.Price)
	}
	if priceResponse.Fiat != "usd" {
		t.Errorf("Expected fiat 'usd', got '%s'", priceResponse.Fiat)
	}

	// Second request is served from cache without another upstream call
	if recorder := performRequest(router, "/price"); recorder.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if hits := upstream.Hits("/simple/price"); hits != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", hits)
	}
}

func TestPriceEndToEndUnsupportedFiat(t *testing.T) {
	upstream := testutils.NewMockUpstream()
	defer upstream.Close()
	upstream.Handle("/simple/price", `{"bitcoin":{}}`)

	router := newIntegrationRouter(t, upstream)

	recorder := performRequest(router, "/price/xyz")
	if recorder.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, recorder.Code)
	}
}

func TestHalvingEndToEnd(t *testing.T) {
	upstream := testutils.NewMockUpstream()
	defer upstream.Close()
	upstream.Handle("/blocks/tip/height", "700000")

	router := newIntegrationRouter(t, upstream)

	recorder := performRequest(router, "/halving")
	if recorder.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, recorder.Code, recorder.Body.String())
	}

	var halvingResponse models.HalvingResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &halvingResponse); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if halvingResponse.NextHalvingHeight != 840000 {
		t.Errorf("Expected next halving height 840000, got %d", halvingResponse.NextHalvingHeight)
	}
	if halvingResponse.BlocksRemaining != 140000 {
		t.Errorf("Expected 140000 blocks remaining, got %d", halvingResponse.BlocksRemaining)
	}
}

func TestUpstreamOutageEndToEnd(t *testing.T) {
	upstream := testutils.NewMockUpstream()
	defer upstream.Close()
	upstream.HandleStatus("/mempool", http.StatusServiceUnavailable, "upstream down")

	router := newIntegrationRouter(t, upstream)

	recorder := performRequest(router, "/mempool")
	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
}
