// Package service implements the aggregation core: each endpoint resolution
// checks the response cache, performs the upstream calls on a miss, transforms
// the raw payloads into the canonical response shape and writes the result
// back with the endpoint's TTL.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"btc-data-api/internal/cache"
	"btc-data-api/internal/config"
	"btc-data-api/internal/logger"
	"btc-data-api/internal/models"
	"btc-data-api/internal/upstream"
)

// Per-endpoint cache TTLs, chosen by data volatility. Balance and transaction
// lookups are never cached: stale balances are unacceptable.
const (
	priceTTL           = 10 * time.Second
	blockTTL           = time.Hour
	statsTTL           = time.Minute
	historicalPriceTTL = 24 * time.Hour
	mempoolTTL         = 10 * time.Second
	halvingTTL         = 10 * time.Minute
	feesTTL            = time.Minute
)

// Fee estimate targets in blocks with their fallback rates in sat/vB
const (
	feeTargetFast   = "2"
	feeTargetMedium = "6"
	feeTargetSlow   = "144"

	feeFallbackFast   = 50
	feeFallbackMedium = 25
	feeFallbackSlow   = 10
)

// Gateway aggregates upstream provider data into canonical responses using
// cache-aside semantics over an injected cache.Store.
type Gateway struct {
	logger logger.Logger
	store  cache.Store

	coinGecko      *upstream.CoinGecko
	blockstream    *upstream.Blockstream
	blockchainInfo *upstream.BlockchainInfo

	flight singleflight.Group
}

// NewGateway creates the aggregation gateway with its upstream clients
func NewGateway(cfg *config.Config, log logger.Logger, store cache.Store) *Gateway {
	client := upstream.NewClient(cfg.UpstreamTimeout, log)

	return &Gateway{
		logger:         log,
		store:          store,
		coinGecko:      upstream.NewCoinGecko(cfg.CoinGeckoBaseURL, client),
		blockstream:    upstream.NewBlockstream(cfg.BlockstreamBaseURL, client),
		blockchainInfo: upstream.NewBlockchainInfo(cfg.BlockchainInfoBaseURL, client),
	}
}

// resolve implements cache-aside around fetch: a hit is decoded into out with
// no upstream calls; concurrent misses for the same key are collapsed via
// singleflight; the cache write after a successful fetch is best-effort and a
// failed fetch never writes to the cache.
func (gateway *Gateway) resolve(ctx context.Context, key string, ttl time.Duration, out interface{}, fetch func(context.Context) (interface{}, error)) error {
	if data, ok := gateway.store.Get(ctx, key); ok {
		if err := json.Unmarshal(data, out); err == nil {
			return nil
		}
		gateway.logger.Warnf("Discarding undecodable cache entry for key %s", key)
	}

	result, err, _ := gateway.flight.Do(key, func() (interface{}, error) {
		response, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(response)
		if err != nil {
			return nil, &ServiceError{Type: ErrorTypeUnknown, Message: "failed to encode response", Cause: err}
		}

		gateway.store.Set(ctx, key, data, ttl)
		return data, nil
	})
	if err != nil {
		return err
	}

	return json.Unmarshal(result.([]byte), out)
}

// Price returns the spot price in the given fiat currency, cached for 10s
// under price:{fiat}
func (gateway *Gateway) Price(ctx context.Context, fiat string) (models.PriceResponse, error) {
	fiat = strings.ToLower(strings.TrimSpace(fiat))
	if fiat == "" {
		return models.PriceResponse{}, badInput("invalid fiat currency", nil)
	}

	var response models.PriceResponse
	err := gateway.resolve(ctx, "price:"+fiat, priceTTL, &response, func(ctx context.Context) (interface{}, error) {
		quote, err := gateway.coinGecko.SimplePrice(ctx, fiat)
		if err != nil {
			return nil, mapUpstreamError(err, "invalid fiat currency", "error fetching price")
		}

		return models.PriceResponse{
			Fiat:             fiat,
			Price:            quote.Price,
			Change24hPercent: quote.Change24h,
			Timestamp:        isoNow(),
			Source:           "coingecko",
		}, nil
	})
	return response, err
}

// Balance returns the confirmed balance of an address with its USD valuation.
// Never cached; the auxiliary USD price lookup goes through the cached price
// path.
func (gateway *Gateway) Balance(ctx context.Context, address string) (models.BalanceResponse, error) {
	if address == "" {
		return models.BalanceResponse{}, badInput("invalid address", nil)
	}

	info, err := gateway.blockstream.Address(ctx, address)
	if err != nil {
		return models.BalanceResponse{}, mapUpstreamError(err, "invalid address", "error fetching balance")
	}

	usdPrice, err := gateway.Price(ctx, "usd")
	if err != nil {
		return models.BalanceResponse{}, err
	}

	balanceSats := info.ChainStats.FundedTxoSum - info.ChainStats.SpentTxoSum
	balanceBTC := satsToBTC(balanceSats)

	lastTx := "N/A"
	if info.ChainStats.LastTxTimestamp > 0 {
		lastTx = isoTime(info.ChainStats.LastTxTimestamp)
	}

	return models.BalanceResponse{
		Address:    address,
		BalanceBTC: balanceBTC,
		BalanceUSD: balanceBTC * usdPrice.Price,
		TxCount:    info.ChainStats.TxCount,
		LastTx:     lastTx,
	}, nil
}

// Transaction returns transaction details with a live-tip confirmation count.
// Never cached.
func (gateway *Gateway) Transaction(ctx context.Context, txid string) (models.TxResponse, error) {
	if txid == "" {
		return models.TxResponse{}, badInput("invalid txid", nil)
	}

	tx, err := gateway.blockstream.Transaction(ctx, txid)
	if err != nil {
		return models.TxResponse{}, mapUpstreamError(err, "invalid txid", "error fetching transaction")
	}

	var blockHeight, confirmations int64
	timestamp := "N/A"
	if tx.Status.Confirmed {
		tipHeight, err := gateway.blockstream.TipHeight(ctx)
		if err != nil {
			return models.TxResponse{}, mapUpstreamError(err, "invalid txid", "error fetching transaction")
		}

		blockHeight = tx.Status.BlockHeight
		confirmations = tipHeight - blockHeight + 1
		if tx.Status.BlockTime > 0 {
			timestamp = isoTime(tx.Status.BlockTime)
		}
	}

	var valueSats int64
	for _, output := range tx.Vout {
		valueSats += output.Value
	}

	return models.TxResponse{
		TxID:          txid,
		BlockHeight:   blockHeight,
		Confirmations: confirmations,
		FeeBTC:        satsToBTC(tx.Fee),
		ValueBTC:      satsToBTC(valueSats),
		Timestamp:     timestamp,
	}, nil
}

// BlockByHeight returns block details for a height, cached for an hour under
// block:height:{height}. The hash lookup must complete before the detail
// fetch can run.
func (gateway *Gateway) BlockByHeight(ctx context.Context, height int64) (models.BlockResponse, error) {
	if height < 0 {
		return models.BlockResponse{}, badInput("invalid block height", nil)
	}

	key := fmt.Sprintf("block:height:%d", height)

	var response models.BlockResponse
	err := gateway.resolve(ctx, key, blockTTL, &response, func(ctx context.Context) (interface{}, error) {
		hash, err := gateway.blockstream.BlockHashByHeight(ctx, height)
		if err != nil {
			return nil, mapUpstreamError(err, "invalid block height", "error fetching block")
		}

		block, err := gateway.blockstream.Block(ctx, hash)
		if err != nil {
			return nil, mapUpstreamError(err, "invalid block height", "error fetching block")
		}

		return buildBlockResponse(height, hash, block), nil
	})
	return response, err
}

// BlockByHash returns block details for a hash, cached for an hour under
// block:hash:{hash}
func (gateway *Gateway) BlockByHash(ctx context.Context, hash string) (models.BlockResponse, error) {
	if hash == "" {
		return models.BlockResponse{}, badInput("invalid block hash", nil)
	}

	var response models.BlockResponse
	err := gateway.resolve(ctx, "block:hash:"+hash, blockTTL, &response, func(ctx context.Context) (interface{}, error) {
		block, err := gateway.blockstream.Block(ctx, hash)
		if err != nil {
			return nil, mapUpstreamError(err, "invalid block hash", "error fetching block")
		}

		return buildBlockResponse(block.Height, hash, block), nil
	})
	return response, err
}

// buildBlockResponse transforms an explorer block into the canonical shape
func buildBlockResponse(height int64, hash string, block upstream.Block) models.BlockResponse {
	miner := "Unknown"
	if block.Extras != nil && block.Extras.PoolName != "" {
		miner = block.Extras.PoolName
	}

	return models.BlockResponse{
		Height:    height,
		Hash:      hash,
		Timestamp: isoTime(block.Timestamp),
		Miner:     miner,
		TxCount:   block.TxCount,
		RewardBTC: BlockReward(height),
	}
}

// Stats returns network-wide statistics, cached for 60s under stats. The four
// upstream calls are independent and run concurrently.
func (gateway *Gateway) Stats(ctx context.Context) (models.StatsResponse, error) {
	var response models.StatsResponse
	err := gateway.resolve(ctx, "stats", statsTTL, &response, func(ctx context.Context) (interface{}, error) {
		var (
			supply, hashRate, difficulty float64
			mempool                      upstream.MempoolInfo
		)

		group, groupCtx := errgroup.WithContext(ctx)
		group.Go(func() (err error) {
			supply, err = gateway.coinGecko.CirculatingSupply(groupCtx)
			return err
		})
		group.Go(func() (err error) {
			hashRate, err = gateway.blockchainInfo.HashRate(groupCtx)
			return err
		})
		group.Go(func() (err error) {
			difficulty, err = gateway.blockchainInfo.Difficulty(groupCtx)
			return err
		})
		group.Go(func() (err error) {
			mempool, err = gateway.blockstream.Mempool(groupCtx)
			return err
		})
		if err := group.Wait(); err != nil {
			return nil, mapUpstreamError(err, "error fetching stats", "error fetching stats")
		}

		return models.StatsResponse{
			HashrateTHS:          hashRate,
			Difficulty:           difficulty,
			CirculatingSupplyBTC: supply,
			MempoolSizeMB:        float64(mempool.Vsize) / 1e6,
			Timestamp:            isoNow(),
		}, nil
	})
	return response, err
}

// HistoricalPrice returns USD market data for a past date, cached for a day
// under historical_price:{date}. Malformed dates are rejected before any
// upstream call.
func (gateway *Gateway) HistoricalPrice(ctx context.Context, date string) (models.HistoricalPriceResponse, error) {
	providerDate, err := toProviderDate(date)
	if err != nil {
		return models.HistoricalPriceResponse{}, badInput("invalid date format (use YYYY-MM-DD)", err)
	}

	var response models.HistoricalPriceResponse
	err = gateway.resolve(ctx, "historical_price:"+date, historicalPriceTTL, &response, func(ctx context.Context) (interface{}, error) {
		history, err := gateway.coinGecko.History(ctx, providerDate)
		if err != nil {
			return nil, mapUpstreamError(err, "no market data for date", "error fetching historical price")
		}

		return models.HistoricalPriceResponse{
			Date:         date,
			PriceUSD:     history.PriceUSD,
			Volume24hUSD: history.Volume24hUSD,
			MarketCapUSD: history.MarketCapUSD,
		}, nil
	})
	return response, err
}

// Mempool returns the current mempool state, cached for 10s under mempool
func (gateway *Gateway) Mempool(ctx context.Context) (models.MempoolResponse, error) {
	var response models.MempoolResponse
	err := gateway.resolve(ctx, "mempool", mempoolTTL, &response, func(ctx context.Context) (interface{}, error) {
		mempool, err := gateway.blockstream.Mempool(ctx)
		if err != nil {
			return nil, mapUpstreamError(err, "error fetching mempool", "error fetching mempool")
		}

		estimates, err := gateway.blockstream.FeeEstimates(ctx)
		if err != nil {
			return nil, mapUpstreamError(err, "error fetching mempool", "error fetching mempool")
		}

		return models.MempoolResponse{
			SizeTx:      mempool.Count,
			SizeMB:      float64(mempool.Vsize) / 1e6,
			FeePerKBSat: feeTier(estimates, feeTargetMedium, feeFallbackMedium),
			Timestamp:   isoNow(),
		}, nil
	})
	return response, err
}

// Halving returns the next halving schedule derived from the live tip height,
// cached for 10 minutes under halving
func (gateway *Gateway) Halving(ctx context.Context) (models.HalvingResponse, error) {
	var response models.HalvingResponse
	err := gateway.resolve(ctx, "halving", halvingTTL, &response, func(ctx context.Context) (interface{}, error) {
		tipHeight, err := gateway.blockstream.TipHeight(ctx)
		if err != nil {
			return nil, mapUpstreamError(err, "error fetching halving schedule", "error fetching halving schedule")
		}

		epoch := tipHeight / HalvingInterval
		nextHeight := (epoch + 1) * HalvingInterval
		blocksRemaining := nextHeight - tipHeight
		estimatedDate := time.Now().UTC().
			Add(time.Duration(blocksRemaining*BlockTimeMinutes) * time.Minute).
			Format(time.RFC3339)
		currentReward := BlockReward(tipHeight)

		return models.HalvingResponse{
			NextHalvingHeight: nextHeight,
			BlocksRemaining:   blocksRemaining,
			EstimatedDate:     estimatedDate,
			CurrentRewardBTC:  currentReward,
			NextRewardBTC:     currentReward / 2,
			TotalHalvings:     epoch,
			Timestamp:         isoNow(),
		}, nil
	})
	return response, err
}

// Fees returns fee estimates for fast/medium/slow confirmation targets,
// cached for 60s under fees
func (gateway *Gateway) Fees(ctx context.Context) (models.FeesResponse, error) {
	var response models.FeesResponse
	err := gateway.resolve(ctx, "fees", feesTTL, &response, func(ctx context.Context) (interface{}, error) {
		estimates, err := gateway.blockstream.FeeEstimates(ctx)
		if err != nil {
			return nil, mapUpstreamError(err, "error fetching fees", "error fetching fees")
		}

		mempool, err := gateway.blockstream.Mempool(ctx)
		if err != nil {
			return nil, mapUpstreamError(err, "error fetching fees", "error fetching fees")
		}

		return models.FeesResponse{
			FastSatPerByte:   int(feeTier(estimates, feeTargetFast, feeFallbackFast)),
			FastConfirmMin:   20,
			MediumSatPerByte: int(feeTier(estimates, feeTargetMedium, feeFallbackMedium)),
			MediumConfirmMin: 60,
			SlowSatPerByte:   int(feeTier(estimates, feeTargetSlow, feeFallbackSlow)),
			SlowConfirmMin:   1440,
			MempoolSizeMB:    float64(mempool.Vsize) / 1e6,
			Timestamp:        isoNow(),
		}, nil
	})
	return response, err
}

// feeTier picks one confirmation target from the estimate map
func feeTier(estimates map[string]float64, target string, fallback float64) float64 {
	if rate, ok := estimates[target]; ok {
		return rate
	}
	return fallback
}
