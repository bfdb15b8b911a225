package models

import (
	"time"
)

// ScoreBreakdown is the output of scoring one candidate. Sub-scores are
// computed independently and summed into Total. Reasons holds one
// human-readable justification per sub-score, in evaluation order.
type ScoreBreakdown struct {
	Liquidity float64
	Volume    float64
	Age       float64
	Venue     float64
	Security  float64

	Total     float64
	Threshold float64

	Reasons []string

	// SecurityInconclusive is set when the security oracle was
	// unavailable or returned no usable signal, so the Security
	// sub-score contributed nothing either way.
	SecurityInconclusive bool
}

// AlertWorthy reports whether the candidate clears the alert threshold.
// The comparison is inclusive: a total exactly equal to the threshold
// alerts.
func (b ScoreBreakdown) AlertWorthy() bool {
	return b.Total >= b.Threshold
}

// Alert is the formatted notification payload for one alert-worthy pair.
type Alert struct {
	ID           string
	PairID       string
	Chain        string
	TokenAddress string
	TokenSymbol  string

	Title    string
	Subtitle string
	// Lines are the rendered body lines, justification order preserved.
	Lines []string

	PairURL     string
	ExplorerURL string

	Score        float64
	Threshold    float64
	LiquidityUSD float64
	Volume24hUSD float64

	DetectedAt time.Time
	Delivered  bool
}
