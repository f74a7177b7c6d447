package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// CoinGecko wraps the CoinGecko price index endpoints
type CoinGecko struct {
	baseURL string
	client  *Client
}

// NewCoinGecko creates a CoinGecko provider client
func NewCoinGecko(baseURL string, client *Client) *CoinGecko {
	return &CoinGecko{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// SimplePrice is a bitcoin spot quote in one fiat currency
type SimplePrice struct {
	Price     float64
	Change24h float64
}

// SimplePrice fetches the bitcoin spot price and 24h change for a fiat code.
// An unknown fiat code comes back as KindNotFound: CoinGecko answers 200 with
// the quote absent from the payload.
func (provider *CoinGecko) SimplePrice(ctx context.Context, fiat string) (SimplePrice, error) {
	const op = "coingecko.simple_price"

	fiat = strings.ToLower(fiat)
	requestURL := fmt.Sprintf("%s/simple/price?ids=bitcoin&vs_currencies=%s&include_24hr_change=true",
		provider.baseURL, url.QueryEscape(fiat))

	var payload map[string]map[string]float64
	if err := provider.client.getJSON(ctx, op, requestURL, false, &payload); err != nil {
		return SimplePrice{}, err
	}

	coin, ok := payload["bitcoin"]
	if !ok {
		return SimplePrice{}, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("no bitcoin entry in payload")}
	}

	price, ok := coin[fiat]
	if !ok {
		return SimplePrice{}, &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("no quote for fiat %q", fiat)}
	}

	return SimplePrice{
		Price:     price,
		Change24h: coin[fiat+"_24h_change"],
	}, nil
}

// CirculatingSupply fetches the circulating bitcoin supply from the coin data
// endpoint
func (provider *CoinGecko) CirculatingSupply(ctx context.Context) (float64, error) {
	const op = "coingecko.coin_data"

	requestURL := provider.baseURL +
		"/coins/bitcoin?localization=false&tickers=false&market_data=true&community_data=false&developer_data=false&sparkline=false"

	var payload struct {
		MarketData struct {
			CirculatingSupply float64 `json:"circulating_supply"`
		} `json:"market_data"`
	}
	if err := provider.client.getJSON(ctx, op, requestURL, false, &payload); err != nil {
		return 0, err
	}

	if payload.MarketData.CirculatingSupply == 0 {
		return 0, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("no circulating supply in payload")}
	}

	return payload.MarketData.CirculatingSupply, nil
}

// CoinHistory is USD market data for a single past day
type CoinHistory struct {
	PriceUSD     float64
	Volume24hUSD float64
	MarketCapUSD float64
}

// History fetches market data for a past date. The date must already be in
// the provider's DD-MM-YYYY format; the YYYY-MM-DD conversion happens in the
// service layer where it is unit-testable without the network.
func (provider *CoinGecko) History(ctx context.Context, providerDate string) (CoinHistory, error) {
	const op = "coingecko.coin_history"

	requestURL := fmt.Sprintf("%s/coins/bitcoin/history?date=%s&localization=false",
		provider.baseURL, url.QueryEscape(providerDate))

	// CoinGecko answers 200 without market_data for dates it has no data for
	var payload struct {
		MarketData *struct {
			CurrentPrice map[string]float64 `json:"current_price"`
			TotalVolume  map[string]float64 `json:"total_volume"`
			MarketCap    map[string]float64 `json:"market_cap"`
		} `json:"market_data"`
	}
	if err := provider.client.getJSON(ctx, op, requestURL, false, &payload); err != nil {
		return CoinHistory{}, err
	}

	if payload.MarketData == nil {
		return CoinHistory{}, &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("no market data for date %s", providerDate)}
	}

	return CoinHistory{
		PriceUSD:     payload.MarketData.CurrentPrice["usd"],
		Volume24hUSD: payload.MarketData.TotalVolume["usd"],
		MarketCapUSD: payload.MarketData.MarketCap["usd"],
	}, nil
}
