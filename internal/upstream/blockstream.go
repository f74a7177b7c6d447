package upstream

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Blockstream wraps the Blockstream explorer endpoints
type Blockstream struct {
	baseURL string
	client  *Client
}

// NewBlockstream creates a Blockstream provider client
func NewBlockstream(baseURL string, client *Client) *Blockstream {
	return &Blockstream{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// AddressInfo is the confirmed-chain summary for an address
type AddressInfo struct {
	Address    string `json:"address"`
	ChainStats struct {
		FundedTxoSum    int64 `json:"funded_txo_sum"`
		SpentTxoSum     int64 `json:"spent_txo_sum"`
		TxCount         int64 `json:"tx_count"`
		LastTxTimestamp int64 `json:"last_tx_timestamp"`
	} `json:"chain_stats"`
}

// Address fetches the chain summary for an address; an invalid address is
// reported as KindNotFound
func (provider *Blockstream) Address(ctx context.Context, address string) (AddressInfo, error) {
	requestURL := provider.baseURL + "/address/" + url.PathEscape(address)

	var info AddressInfo
	if err := provider.client.getJSON(ctx, "blockstream.address", requestURL, true, &info); err != nil {
		return AddressInfo{}, err
	}
	return info, nil
}

// Transaction is the explorer view of a transaction
type Transaction struct {
	TxID string `json:"txid"`
	Fee  int64  `json:"fee"`
	Vout []struct {
		Value int64 `json:"value"`
	} `json:"vout"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
		BlockTime   int64 `json:"block_time"`
	} `json:"status"`
}

// Transaction fetches a transaction by id; an unknown txid is reported as
// KindNotFound
func (provider *Blockstream) Transaction(ctx context.Context, txid string) (Transaction, error) {
	requestURL := provider.baseURL + "/tx/" + url.PathEscape(txid)

	var tx Transaction
	if err := provider.client.getJSON(ctx, "blockstream.tx", requestURL, true, &tx); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// BlockHashByHeight resolves a block height to its hash
func (provider *Blockstream) BlockHashByHeight(ctx context.Context, height int64) (string, error) {
	requestURL := fmt.Sprintf("%s/block-height/%d", provider.baseURL, height)
	return provider.client.getText(ctx, "blockstream.block_height", requestURL, true)
}

// Block is the explorer view of a block header
type Block struct {
	ID        string `json:"id"`
	Height    int64  `json:"height"`
	Timestamp int64  `json:"timestamp"`
	TxCount   int64  `json:"tx_count"`
	Extras    *struct {
		PoolName string `json:"pool_name"`
	} `json:"extras"`
}

// Block fetches a block by hash; an unknown hash is reported as KindNotFound
func (provider *Blockstream) Block(ctx context.Context, hash string) (Block, error) {
	requestURL := provider.baseURL + "/block/" + url.PathEscape(hash)

	var block Block
	if err := provider.client.getJSON(ctx, "blockstream.block", requestURL, true, &block); err != nil {
		return Block{}, err
	}
	return block, nil
}

// TipHeight fetches the current chain tip height
func (provider *Blockstream) TipHeight(ctx context.Context) (int64, error) {
	const op = "blockstream.tip_height"

	body, err := provider.client.getText(ctx, op, provider.baseURL+"/blocks/tip/height", false)
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(body, 10, 64)
	if err != nil {
		return 0, &Error{Kind: KindMalformed, Op: op, Err: fmt.Errorf("non-numeric tip height %q", body)}
	}
	return height, nil
}

// MempoolInfo is the current mempool summary
type MempoolInfo struct {
	Count    int64 `json:"count"`
	Vsize    int64 `json:"vsize"`
	TotalFee int64 `json:"total_fee"`
}

// Mempool fetches the current mempool summary
func (provider *Blockstream) Mempool(ctx context.Context) (MempoolInfo, error) {
	var info MempoolInfo
	if err := provider.client.getJSON(ctx, "blockstream.mempool", provider.baseURL+"/mempool", false, &info); err != nil {
		return MempoolInfo{}, err
	}
	return info, nil
}

// FeeEstimates fetches the fee estimate map, keyed by confirmation target in
// blocks ("2", "6", "144", ...), values in sat/vB
func (provider *Blockstream) FeeEstimates(ctx context.Context) (map[string]float64, error) {
	var estimates map[string]float64
	if err := provider.client.getJSON(ctx, "blockstream.fee_estimates", provider.baseURL+"/fee-estimates", false, &estimates); err != nil {
		return nil, err
	}
	return estimates, nil
}
