// Package dexscreener queries DexScreener-compatible endpoints and
// normalizes pair records into candidates.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"pairwatch/internal/config"
	"pairwatch/internal/logger"
	"pairwatch/internal/models"
)

// Client provides access to the market-data source.
type Client struct {
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
	fetchCap       int
}

// ClientConfig holds HTTP client tuning.
type ClientConfig struct {
	MaxRetries          int
	RetryDelayBase      time.Duration
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

// pairsResponse mirrors the DexScreener pairs payload. Only the fields the
// pipeline consumes are declared.
type pairsResponse struct {
	SchemaVersion string       `json:"schemaVersion"`
	Pairs         []pairRecord `json:"pairs"`
}

type pairRecord struct {
	ChainID     string    `json:"chainId"`
	DexID       string    `json:"dexId"`
	URL         string    `json:"url"`
	PairAddress string    `json:"pairAddress"`
	BaseToken   tokenInfo `json:"baseToken"`
	QuoteToken  tokenInfo `json:"quoteToken"`
	PriceUsd    string    `json:"priceUsd"`
	Liquidity   *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	// Milliseconds since epoch; zero when the source does not know.
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

type tokenInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// NewClient creates a new market-data client. fetchCap bounds how many
// candidates one FetchPairs call may return.
func NewClient(timeout time.Duration, fetchCap int, cfg ClientConfig) *Client {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelayBase <= 0 {
		cfg.RetryDelayBase = time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		maxRetries:     cfg.MaxRetries,
		retryDelayBase: cfg.RetryDelayBase,
		fetchCap:       fetchCap,
	}
}

// FetchPairs queries every endpoint configured for the chain and returns the
// merged, normalized candidates, first seen wins per pair address. A record
// that cannot be normalized is dropped; the rest of the batch continues. An
// error is returned only when every endpoint failed.
func (c *Client) FetchPairs(ctx context.Context, chain config.ChainConfig) ([]models.Candidate, error) {
	var (
		candidates []models.Candidate
		seen       = make(map[string]bool)
		lastErr    error
		succeeded  bool
	)

	for _, endpoint := range chain.Endpoints {
		recs, err := c.fetchEndpoint(ctx, endpoint)
		if err != nil {
			lastErr = err
			logger.Warn("Endpoint %s failed for chain %s: %v", endpoint, chain.Name, err)
			continue
		}
		succeeded = true

		for _, rec := range recs {
			cand, err := normalize(rec, chain.Name)
			if err != nil {
				logger.Debug("Dropping malformed record from %s: %v", endpoint, err)
				continue
			}
			if seen[cand.PairID] {
				continue
			}
			seen[cand.PairID] = true
			candidates = append(candidates, cand)
		}
	}

	if !succeeded {
		return nil, fmt.Errorf("all endpoints failed for chain %s: %w", chain.Name, lastErr)
	}

	if c.fetchCap > 0 && len(candidates) > c.fetchCap {
		candidates = candidates[:c.fetchCap]
	}
	return candidates, nil
}

func (c *Client) fetchEndpoint(ctx context.Context, endpoint string) ([]pairRecord, error) {
	resp, err := c.doRequest(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var payload pairsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode pairs: %w", err)
	}
	return payload.Pairs, nil
}

// normalize converts one raw record into a candidate, rejecting records
// whose identifying fields are missing.
func normalize(rec pairRecord, chainName string) (models.Candidate, error) {
	if rec.PairAddress == "" {
		return models.Candidate{}, fmt.Errorf("missing pair address")
	}
	if rec.BaseToken.Address == "" {
		return models.Candidate{}, fmt.Errorf("missing base token address (pair %s)", rec.PairAddress)
	}

	cand := models.Candidate{
		PairID:            chainName + ":" + rec.PairAddress,
		Chain:             chainName,
		TokenAddress:      rec.BaseToken.Address,
		TokenName:         rec.BaseToken.Name,
		TokenSymbol:       rec.BaseToken.Symbol,
		QuoteSymbol:       rec.QuoteToken.Symbol,
		DexID:             rec.DexID,
		PriceUSD:          rec.PriceUsd,
		Volume24hUSD:      rec.Volume.H24,
		PriceChange24hPct: rec.PriceChange.H24,
		URL:               rec.URL,
	}
	if rec.Liquidity != nil {
		cand.LiquidityUSD = rec.Liquidity.USD
	}
	if rec.PairCreatedAt > 0 {
		created := time.UnixMilli(rec.PairCreatedAt)
		cand.CreatedAt = &created
	}
	if err := cand.Validate(); err != nil {
		return models.Candidate{}, err
	}
	return cand, nil
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}

		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			time.Sleep(c.retryDelayBase * time.Duration(i+1))
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
