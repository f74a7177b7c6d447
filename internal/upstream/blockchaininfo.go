package upstream

import (
	"context"
	"fmt"
	"strings"
)

// BlockchainInfo wraps the Blockchain.info charts endpoints used for network
// statistics
type BlockchainInfo struct {
	baseURL string
	client  *Client
}

// NewBlockchainInfo creates a Blockchain.info provider client
func NewBlockchainInfo(baseURL string, client *Client) *BlockchainInfo {
	return &BlockchainInfo{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// HashRate fetches the latest 24h-average network hash rate in TH/s
func (provider *BlockchainInfo) HashRate(ctx context.Context) (float64, error) {
	return provider.latestChartValue(ctx, "hash-rate")
}

// Difficulty fetches the latest network difficulty
func (provider *BlockchainInfo) Difficulty(ctx context.Context) (float64, error) {
	return provider.latestChartValue(ctx, "difficulty")
}

// latestChartValue fetches a one-day chart and returns its most recent point
func (provider *BlockchainInfo) latestChartValue(ctx context.Context, chart string) (float64, error) {
	op := "blockchaininfo." + chart

	requestURL := fmt.Sprintf("%s/charts/%s?timespan=1days&format=json", provider.baseURL, chart)

	var payload struct {
		Values []struct {
			X int64   `json:"x"`
			Y float64 `json:"y"`
		} `json:"values"`
	}
	if err := provider.client.getJSON(ctx, op, requestURL, false, &payload); err != nil {
		return 0, err
	}

	if len(payload.Values) == 0 {
		return 0, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("empty chart")}
	}

	return payload.Values[len(payload.Values)-1].Y, nil
}
