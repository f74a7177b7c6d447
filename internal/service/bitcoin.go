package service

import (
	"math"
	"time"
)

// Protocol constants for subsidy arithmetic
const (
	HalvingInterval  = 210000
	BaseSubsidyBTC   = 50
	BlockTimeMinutes = 10

	satoshisPerBTC = 1e8
)

// BlockReward returns the per-block subsidy in BTC at the given height,
// halving every HalvingInterval blocks
func BlockReward(height int64) float64 {
	return BaseSubsidyBTC / math.Pow(2, float64(height/HalvingInterval))
}

// satsToBTC converts satoshis to whole bitcoin
func satsToBTC(sats int64) float64 {
	return float64(sats) / satoshisPerBTC
}

// toProviderDate converts a YYYY-MM-DD date to the DD-MM-YYYY format the
// price history provider expects. Malformed input is rejected here, before
// any upstream call is made.
func toProviderDate(date string) (string, error) {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", err
	}
	return parsed.Format("02-01-2006"), nil
}

// isoTime renders a unix timestamp as RFC 3339 UTC
func isoTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(time.RFC3339)
}

// isoNow renders the current time as RFC 3339 UTC
func isoNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
