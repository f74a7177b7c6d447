package api

import (
	"context"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"btc-data-api/internal/logger"
	"btc-data-api/internal/middleware"
	"btc-data-api/internal/models"
	"btc-data-api/internal/ratelimit"
	"btc-data-api/internal/service"
)

// Gateway is the aggregation surface the handlers depend on
type Gateway interface {
	Price(ctx context.Context, fiat string) (models.PriceResponse, error)
	Balance(ctx context.Context, address string) (models.BalanceResponse, error)
	Transaction(ctx context.Context, txid string) (models.TxResponse, error)
	BlockByHeight(ctx context.Context, height int64) (models.BlockResponse, error)
	BlockByHash(ctx context.Context, hash string) (models.BlockResponse, error)
	Stats(ctx context.Context) (models.StatsResponse, error)
	HistoricalPrice(ctx context.Context, date string) (models.HistoricalPriceResponse, error)
	Mempool(ctx context.Context) (models.MempoolResponse, error)
	Halving(ctx context.Context) (models.HalvingResponse, error)
	Fees(ctx context.Context) (models.FeesResponse, error)
}

// blockHashPattern matches a 64-digit hex block hash
var blockHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// endpointListing is returned by the root endpoint
var endpointListing = []string{
	"/price",
	"/price/{fiat}",
	"/balance/{address}",
	"/tx/{txid}",
	"/block/{height}",
	"/block/{hash}",
	"/stats",
	"/historical/price?date=YYYY-MM-DD",
	"/mempool",
	"/halving",
	"/fees",
}

// HandlerConfig contains all dependencies for the Handlers
type HandlerConfig struct {
	Logger      logger.Logger
	Gateway     Gateway
	RateLimiter *ratelimit.Limiter
}

// Handlers contains all HTTP handlers
type Handlers struct {
	logger      logger.Logger
	startTime   time.Time
	gateway     Gateway
	rateLimiter *ratelimit.Limiter
}

// NewHandlers creates a new handlers instance with all dependencies
func NewHandlers(config HandlerConfig) *Handlers {
	return &Handlers{
		logger:      config.Logger,
		startTime:   time.Now(),
		gateway:     config.Gateway,
		rateLimiter: config.RateLimiter,
	}
}

// SetupRoutes configures all the routes using Gin
func (handlers *Handlers) SetupRoutes() *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.RequestLogger(handlers.logger))
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())
	router.Use(handlers.corsMiddleware())

	// Operational endpoints stay outside the rate limit
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Add rate limiting middleware if enabled
	if handlers.rateLimiter != nil {
		router.Use(handlers.rateLimitMiddleware())
	}

	router.GET("/", handlers.Index)
	router.GET("/price", handlers.GetPrice)
	router.GET("/price/:fiat", handlers.GetPriceByFiat)
	router.GET("/balance/:address", handlers.GetBalance)
	router.GET("/tx/:txid", handlers.GetTransaction)
	router.GET("/block/:id", handlers.GetBlock)
	router.GET("/stats", handlers.GetStats)
	router.GET("/historical/price", handlers.GetHistoricalPrice)
	router.GET("/mempool", handlers.GetMempool)
	router.GET("/halving", handlers.GetHalving)
	router.GET("/fees", handlers.GetFees)

	return router
}

// Index lists the available endpoints
func (handlers *Handlers) Index(context *gin.Context) {
	context.JSON(http.StatusOK, gin.H{"endpoints": endpointListing})
}

// HealthCheck handles health check requests
func (handlers *Handlers) HealthCheck(context *gin.Context) {
	healthCheckResponse := models.HealthCheck{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   "1.0.0",
		Uptime:    time.Since(handlers.startTime).String(),
	}

	context.JSON(http.StatusOK, healthCheckResponse)
}

// GetPrice returns the spot price in USD
func (handlers *Handlers) GetPrice(context *gin.Context) {
	response, err := handlers.gateway.Price(context.Request.Context(), "usd")
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetPriceByFiat returns the spot price in the requested fiat currency
func (handlers *Handlers) GetPriceByFiat(context *gin.Context) {
	response, err := handlers.gateway.Price(context.Request.Context(), context.Param("fiat"))
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetBalance returns the confirmed balance of an address
func (handlers *Handlers) GetBalance(context *gin.Context) {
	response, err := handlers.gateway.Balance(context.Request.Context(), context.Param("address"))
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetTransaction returns transaction details with confirmations
func (handlers *Handlers) GetTransaction(context *gin.Context) {
	response, err := handlers.gateway.Transaction(context.Request.Context(), context.Param("txid"))
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetBlock returns block details. The path parameter is a height when
// numeric and a block hash when 64 hex digits; anything else is a client
// error answered without upstream calls.
func (handlers *Handlers) GetBlock(context *gin.Context) {
	id := context.Param("id")

	if height, err := strconv.ParseInt(id, 10, 64); err == nil {
		response, err := handlers.gateway.BlockByHeight(context.Request.Context(), height)
		if err != nil {
			handlers.handleServiceError(context, err)
			return
		}
		context.JSON(http.StatusOK, response)
		return
	}

	if blockHashPattern.MatchString(id) {
		response, err := handlers.gateway.BlockByHash(context.Request.Context(), id)
		if err != nil {
			handlers.handleServiceError(context, err)
			return
		}
		context.JSON(http.StatusOK, response)
		return
	}

	handlers.writeErrorResponse(context, http.StatusBadRequest, "invalid block height or hash", id)
}

// GetStats returns network statistics
func (handlers *Handlers) GetStats(context *gin.Context) {
	response, err := handlers.gateway.Stats(context.Request.Context())
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetHistoricalPrice returns USD market data for a past date
func (handlers *Handlers) GetHistoricalPrice(context *gin.Context) {
	response, err := handlers.gateway.HistoricalPrice(context.Request.Context(), context.Query("date"))
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetMempool returns the current mempool state
func (handlers *Handlers) GetMempool(context *gin.Context) {
	response, err := handlers.gateway.Mempool(context.Request.Context())
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetHalving returns the next halving schedule
func (handlers *Handlers) GetHalving(context *gin.Context) {
	response, err := handlers.gateway.Halving(context.Request.Context())
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// GetFees returns fee estimates for three confirmation targets
func (handlers *Handlers) GetFees(context *gin.Context) {
	response, err := handlers.gateway.Fees(context.Request.Context())
	if err != nil {
		handlers.handleServiceError(context, err)
		return
	}
	context.JSON(http.StatusOK, response)
}

// writeErrorResponse writes an error response using Gin context
func (handlers *Handlers) writeErrorResponse(context *gin.Context, statusCode int, errorMessage, errorDetails string) {
	errorResponse := models.ErrorResponse{
		Error:   errorMessage,
		Message: errorDetails,
		Code:    statusCode,
	}

	context.JSON(statusCode, errorResponse)
}

// handleServiceError maps service errors to HTTP statuses using type switches
func (handlers *Handlers) handleServiceError(context *gin.Context, err error) {
	switch e := err.(type) {
	case *service.ServiceError:
		switch e.Type {
		case service.ErrorTypeBadInput:
			handlers.writeErrorResponse(context, http.StatusBadRequest, e.Message, e.Error())
		case service.ErrorTypeUpstream, service.ErrorTypeMalformed:
			handlers.logger.Errorf("Upstream failure: %v", e)
			handlers.writeErrorResponse(context, http.StatusInternalServerError, e.Message, e.Error())
		default:
			handlers.writeErrorResponse(context, http.StatusInternalServerError, "service error", e.Error())
		}
	default:
		handlers.writeErrorResponse(context, http.StatusInternalServerError, "service error", err.Error())
	}
}

// corsMiddleware adds CORS headers using Gin middleware
func (handlers *Handlers) corsMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		context.Header("Access-Control-Allow-Origin", "*")
		context.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		context.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if context.Request.Method == http.MethodOptions {
			context.AbortWithStatus(http.StatusOK)
			return
		}

		context.Next()
	}
}

// rateLimitMiddleware provides rate limiting using Gin middleware
func (handlers *Handlers) rateLimitMiddleware() gin.HandlerFunc {
	return func(context *gin.Context) {
		clientIP := handlers.rateLimiter.GetClientIP(context.Request)

		if !handlers.rateLimiter.Allow(clientIP) {
			handlers.logger.Warnf("Rate limit exceeded for IP: %s", clientIP)
			context.Header("X-RateLimit-Limit", strconv.Itoa(handlers.rateLimiter.Configuration.RateLimitRequests))
			context.Header("X-RateLimit-Remaining", "0")
			context.Header("X-RateLimit-Reset", strconv.FormatInt(handlers.rateLimiter.ResetAt(clientIP).Unix(), 10))
			context.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			context.Abort()
			return
		}

		context.Next()
	}
}
