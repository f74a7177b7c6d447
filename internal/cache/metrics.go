package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btc_api_cache_hits_total",
		Help: "Total number of cache hits",
	}, []string{"backend"})

	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btc_api_cache_misses_total",
		Help: "Total number of cache misses",
	}, []string{"backend"})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "btc_api_cache_errors_total",
		Help: "Total number of cache backend errors",
	}, []string{"backend", "operation"})
)
