// Package upstream issues bounded-time requests to the external data
// providers and parses their responses. Transport failures, provider
// rejections and malformed payloads are reported as distinct error kinds so
// the service layer can map them to the right client-visible status.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"btc-data-api/internal/logger"
)

// ErrorKind classifies an upstream failure
type ErrorKind int

const (
	// KindUnavailable covers timeouts, connection failures and unexpected
	// provider statuses
	KindUnavailable ErrorKind = iota
	// KindNotFound means the provider rejected the input (4xx on a lookup)
	KindNotFound
	// KindMalformed means the provider responded but the payload did not
	// match the expected shape
	KindMalformed
)

// Error is a typed upstream failure
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client performs single-attempt HTTP GETs with a fixed per-request timeout.
// No retries: a failed attempt fails the whole endpoint resolution.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient creates an upstream HTTP client with the given per-request timeout
func NewClient(timeout time.Duration, logger logger.Logger) *Client {
	httpTransport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: httpTransport},
		logger:     logger,
	}
}

// get fetches url and returns the raw body. When notFoundOK is set, a 4xx
// status is reported as KindNotFound instead of KindUnavailable.
func (client *Client) get(ctx context.Context, op, url string, notFoundOK bool) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: op, Err: err}
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: op, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		kind := KindUnavailable
		if notFoundOK && response.StatusCode >= 400 && response.StatusCode < 500 {
			kind = KindNotFound
		}
		return nil, &Error{Kind: kind, Op: op, Err: fmt.Errorf("status %d", response.StatusCode)}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Op: op, Err: err}
	}

	return body, nil
}

// getJSON fetches url and decodes the body into out
func (client *Client) getJSON(ctx context.Context, op, url string, notFoundOK bool, out interface{}) error {
	body, err := client.get(ctx, op, url, notFoundOK)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Kind: KindMalformed, Op: op, Err: err}
	}

	return nil
}

// getText fetches url and returns the trimmed body as a string
func (client *Client) getText(ctx context.Context, op, url string, notFoundOK bool) (string, error) {
	body, err := client.get(ctx, op, url, notFoundOK)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(body)), nil
}
