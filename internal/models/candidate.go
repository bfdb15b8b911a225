// Package models defines the core domain entities: candidates, verdicts,
// score breakdowns, and alerts.
package models

import (
	"errors"
	"time"
)

// Candidate is a discovered trading pair, normalized across upstream sources.
// Uses composite PairID format "chain:pairAddress" so the same pair address
// on two chains never collides. A candidate is immutable once built; it lives
// for a single scan cycle.
type Candidate struct {
	PairID            string     `json:"pair_id"`
	Chain             string     `json:"chain"`
	TokenAddress      string     `json:"token_address"`
	TokenName         string     `json:"token_name"`
	TokenSymbol       string     `json:"token_symbol"`
	QuoteSymbol       string     `json:"quote_symbol"`
	DexID             string     `json:"dex_id"`
	PriceUSD          string     `json:"price_usd,omitempty"`
	LiquidityUSD      float64    `json:"liquidity_usd"`
	Volume24hUSD      float64    `json:"volume_24h_usd"`
	PriceChange24hPct float64    `json:"price_change_24h_pct"`
	URL               string     `json:"url,omitempty"`
	// CreatedAt is nil when the source does not report a creation time.
	// Unknown age is a distinct case, not zero.
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Validate checks candidate field constraints.
func (c *Candidate) Validate() error {
	if c.PairID == "" {
		return errors.New("pair ID must not be empty")
	}
	if c.Chain == "" {
		return errors.New("chain must not be empty")
	}
	if c.TokenAddress == "" {
		return errors.New("token address must not be empty")
	}
	if c.LiquidityUSD < 0 {
		return errors.New("liquidity must not be negative")
	}
	if c.Volume24hUSD < 0 {
		return errors.New("volume 24h must not be negative")
	}
	return nil
}

// Age returns the pair age relative to now and whether it is known.
func (c *Candidate) Age(now time.Time) (time.Duration, bool) {
	if c.CreatedAt == nil {
		return 0, false
	}
	return now.Sub(*c.CreatedAt), true
}

// SeenPair is one entry of the dedup ledger: a pair identifier that has
// completed a pipeline pass and must never be re-evaluated.
type SeenPair struct {
	PairID    string
	Chain     string
	FirstSeen time.Time
}
