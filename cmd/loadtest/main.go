package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// testConfig holds configuration for a load test run
type testConfig struct {
	BaseURL         string
	Endpoints       []string
	ConcurrentUsers int
	RequestsPerUser int
	Timeout         time.Duration
	RampUpDuration  time.Duration
	ThinkTime       time.Duration
}

// requestResult holds the result of a single request
type requestResult struct {
	Endpoint    string
	StatusCode  int
	Duration    time.Duration
	Success     bool
	RateLimited bool
	Err         error
}

// endpointSummary aggregates results for a single endpoint
type endpointSummary struct {
	Requests    int
	Successes   int
	Failures    int
	RateLimited int
	Average     time.Duration
	P95         time.Duration
}

func main() {
	var cfg testConfig
	var endpointList string

	flag.StringVar(&cfg.BaseURL, "base", "http://localhost:8080", "Gateway base URL")
	flag.StringVar(&endpointList, "endpoints", "/price,/halving,/fees,/mempool", "Comma-separated endpoint paths to rotate through")
	flag.IntVar(&cfg.ConcurrentUsers, "users", 10, "Number of concurrent users")
	flag.IntVar(&cfg.RequestsPerUser, "requests", 20, "Number of requests per user")
	flag.DurationVar(&cfg.Timeout, "timeout", 10*time.Second, "Request timeout")
	flag.DurationVar(&cfg.RampUpDuration, "rampup", 2*time.Second, "Ramp-up duration")
	flag.DurationVar(&cfg.ThinkTime, "think", 50*time.Millisecond, "Think time between requests")
	flag.Parse()

	for _, endpoint := range strings.Split(endpointList, ",") {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" {
			cfg.Endpoints = append(cfg.Endpoints, endpoint)
		}
	}
	if len(cfg.Endpoints) == 0 {
		fmt.Println("No endpoints to test")
		return
	}

	fmt.Printf("Load testing %s\n", cfg.BaseURL)
	fmt.Printf("Endpoints: %s\n", strings.Join(cfg.Endpoints, ", "))
	fmt.Printf("Users: %d, Requests per user: %d\n\n", cfg.ConcurrentUsers, cfg.RequestsPerUser)

	results := run(cfg)
	printSummaries(cfg.Endpoints, results)
}

// run fans the configured users out over the endpoint rotation and collects
// every request result
func run(cfg testConfig) []requestResult {
	resultChannel := make(chan requestResult, cfg.ConcurrentUsers*cfg.RequestsPerUser)

	client := &http.Client{Timeout: cfg.Timeout}
	rampUpDelay := cfg.RampUpDuration / time.Duration(cfg.ConcurrentUsers)

	ctx := context.Background()

	var wg sync.WaitGroup
	for userID := 0; userID < cfg.ConcurrentUsers; userID++ {
		wg.Add(1)
		go func(uid int) {
			defer wg.Done()
			time.Sleep(time.Duration(uid) * rampUpDelay)

			for reqID := 0; reqID < cfg.RequestsPerUser; reqID++ {
				endpoint := cfg.Endpoints[(uid+reqID)%len(cfg.Endpoints)]
				resultChannel <- makeRequest(ctx, client, cfg.BaseURL+endpoint, endpoint)

				if cfg.ThinkTime > 0 {
					time.Sleep(cfg.ThinkTime)
				}
			}
		}(userID)
	}

	wg.Wait()
	close(resultChannel)

	var results []requestResult
	for result := range resultChannel {
		results = append(results, result)
	}
	return results
}

func makeRequest(ctx context.Context, client *http.Client, url, endpoint string) requestResult {
	start := time.Now()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return requestResult{Endpoint: endpoint, Err: err}
	}

	response, err := client.Do(request)
	duration := time.Since(start)
	if err != nil {
		return requestResult{Endpoint: endpoint, Duration: duration, Err: err}
	}

	// Drain the body so connections are reused
	io.Copy(io.Discard, response.Body)
	response.Body.Close()

	return requestResult{
		Endpoint:    endpoint,
		StatusCode:  response.StatusCode,
		Duration:    duration,
		Success:     response.StatusCode >= 200 && response.StatusCode < 300,
		RateLimited: response.StatusCode == http.StatusTooManyRequests,
	}
}

func summarize(results []requestResult) endpointSummary {
	var summary endpointSummary
	var durations []time.Duration
	var total time.Duration

	for _, result := range results {
		summary.Requests++
		durations = append(durations, result.Duration)
		total += result.Duration

		switch {
		case result.Success:
			summary.Successes++
		case result.RateLimited:
			summary.RateLimited++
		default:
			summary.Failures++
		}
	}

	if summary.Requests == 0 {
		return summary
	}

	summary.Average = total / time.Duration(summary.Requests)

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	index := len(durations) * 95 / 100
	if index >= len(durations) {
		index = len(durations) - 1
	}
	summary.P95 = durations[index]

	return summary
}

func printSummaries(endpoints []string, results []requestResult) {
	byEndpoint := make(map[string][]requestResult)
	for _, result := range results {
		byEndpoint[result.Endpoint] = append(byEndpoint[result.Endpoint], result)
	}

	fmt.Println("=== Results ===")
	for _, endpoint := range endpoints {
		summary := summarize(byEndpoint[endpoint])
		fmt.Printf("%-24s requests=%-5d ok=%-5d failed=%-4d rate-limited=%-4d avg=%-12v p95=%v\n",
			endpoint, summary.Requests, summary.Successes, summary.Failures,
			summary.RateLimited, summary.Average, summary.P95)
	}

	overall := summarize(results)
	fmt.Printf("\nTotal: %d requests, %.1f%% ok, %d rate-limited\n",
		overall.Requests,
		float64(overall.Successes)/float64(overall.Requests)*100,
		overall.RateLimited)
	if overall.RateLimited > 0 {
		fmt.Println("Rate limiting kicked in; lower -users/-requests or raise RATE_LIMIT_REQUESTS to measure raw throughput.")
	}
}
