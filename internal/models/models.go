package models

import (
	"encoding/json"
	"strings"
	"time"
)

// PriceResponse is the spot price payload. The price field name carries the
// fiat code ("price_usd", "price_eur", ...), so serialization is custom.
type PriceResponse struct {
	Fiat             string
	Price            float64
	Change24hPercent float64
	Timestamp        string
	Source           string
}

// MarshalJSON emits the fiat-keyed price field alongside the fixed fields
func (p PriceResponse) MarshalJSON() ([]byte, error) {
	payload := map[string]interface{}{
		"price_" + p.Fiat:    p.Price,
		"change_24h_percent": p.Change24hPercent,
		"timestamp":          p.Timestamp,
		"source":             p.Source,
	}
	return json.Marshal(payload)
}

// UnmarshalJSON recovers the fiat code from the dynamic price field
func (p *PriceResponse) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		switch {
		case key == "change_24h_percent":
			if err := json.Unmarshal(value, &p.Change24hPercent); err != nil {
				return err
			}
		case key == "timestamp":
			if err := json.Unmarshal(value, &p.Timestamp); err != nil {
				return err
			}
		case key == "source":
			if err := json.Unmarshal(value, &p.Source); err != nil {
				return err
			}
		case strings.HasPrefix(key, "price_"):
			p.Fiat = strings.TrimPrefix(key, "price_")
			if err := json.Unmarshal(value, &p.Price); err != nil {
				return err
			}
		}
	}
	return nil
}

// BalanceResponse reports an address balance with its USD valuation
type BalanceResponse struct {
	Address    string  `json:"address"`
	BalanceBTC float64 `json:"balance_btc"`
	BalanceUSD float64 `json:"balance_usd"`
	TxCount    int64   `json:"tx_count"`
	LastTx     string  `json:"last_tx"`
}

// TxResponse reports a transaction with its confirmation count
type TxResponse struct {
	TxID          string  `json:"txid"`
	BlockHeight   int64   `json:"block_height"`
	Confirmations int64   `json:"confirmations"`
	FeeBTC        float64 `json:"fee_btc"`
	ValueBTC      float64 `json:"value_btc"`
	Timestamp     string  `json:"timestamp"`
}

// BlockResponse reports block details with the subsidy for its halving epoch
type BlockResponse struct {
	Height    int64   `json:"height"`
	Hash      string  `json:"hash"`
	Timestamp string  `json:"timestamp"`
	Miner     string  `json:"miner"`
	TxCount   int64   `json:"tx_count"`
	RewardBTC float64 `json:"reward_btc"`
}

// StatsResponse aggregates network-wide statistics
type StatsResponse struct {
	HashrateTHS          float64 `json:"hashrate_th_s"`
	Difficulty           float64 `json:"difficulty"`
	CirculatingSupplyBTC float64 `json:"circulating_supply_btc"`
	MempoolSizeMB        float64 `json:"mempool_size_mb"`
	Timestamp            string  `json:"timestamp"`
}

// HistoricalPriceResponse reports market data for a single past day
type HistoricalPriceResponse struct {
	Date         string  `json:"date"`
	PriceUSD     float64 `json:"price_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`
	MarketCapUSD float64 `json:"market_cap_usd"`
}

// MempoolResponse reports current mempool state
type MempoolResponse struct {
	SizeTx      int64   `json:"size_tx"`
	SizeMB      float64 `json:"size_mb"`
	FeePerKBSat float64 `json:"fee_per_kb_sat"`
	Timestamp   string  `json:"timestamp"`
}

// HalvingResponse reports the next subsidy halving schedule
type HalvingResponse struct {
	NextHalvingHeight int64   `json:"next_halving_height"`
	BlocksRemaining   int64   `json:"blocks_remaining"`
	EstimatedDate     string  `json:"estimated_date"`
	CurrentRewardBTC  float64 `json:"current_reward_btc"`
	NextRewardBTC     float64 `json:"next_reward_btc"`
	TotalHalvings     int64   `json:"total_halvings"`
	Timestamp         string  `json:"timestamp"`
}

// FeesResponse reports fee estimates for three confirmation targets
type FeesResponse struct {
	FastSatPerByte   int     `json:"fast_sat_per_byte"`
	FastConfirmMin   int     `json:"fast_confirm_min"`
	MediumSatPerByte int     `json:"medium_sat_per_byte"`
	MediumConfirmMin int     `json:"medium_confirm_min"`
	SlowSatPerByte   int     `json:"slow_sat_per_byte"`
	SlowConfirmMin   int     `json:"slow_confirm_min"`
	MempoolSizeMB    float64 `json:"mempool_size_mb"`
	Timestamp        string  `json:"timestamp"`
}

type HealthCheck struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
