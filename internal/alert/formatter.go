// Package alert renders score breakdowns into notification payloads.
// Formatting is pure and locale-independent so output is byte-stable.
package alert

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"pairwatch/internal/config"
	"pairwatch/internal/models"
)

// Format renders one alert-worthy candidate into a notification payload.
// The caller assigns ID and DetectedAt; everything else is derived from the
// inputs alone, so identical inputs produce identical payloads.
func Format(c models.Candidate, b models.ScoreBreakdown, chain config.ChainConfig) models.Alert {
	name := c.TokenName
	if name == "" {
		name = "Unknown"
	}
	symbol := c.TokenSymbol
	if symbol == "" {
		symbol = "?"
	}

	lines := make([]string, 0, len(b.Reasons)+3)
	lines = append(lines, fmt.Sprintf("score %.1f / %.1f", b.Total, b.Threshold))
	if c.PriceUSD != "" {
		lines = append(lines, fmt.Sprintf("price $%s", c.PriceUSD))
	}
	lines = append(lines, fmt.Sprintf("24h change %+.2f%%", c.PriceChange24hPct))
	lines = append(lines, b.Reasons...)

	var explorerURL string
	if chain.ExplorerURL != "" {
		explorerURL = fmt.Sprintf(chain.ExplorerURL, c.TokenAddress)
	}

	return models.Alert{
		PairID:       c.PairID,
		Chain:        c.Chain,
		TokenAddress: c.TokenAddress,
		TokenSymbol:  c.TokenSymbol,
		Title:        fmt.Sprintf("NEW PAIR %s", strings.ToUpper(chain.Name)),
		Subtitle:     fmt.Sprintf("%s (%s/%s) on %s", name, symbol, c.QuoteSymbol, c.DexID),
		Lines:        lines,
		PairURL:      c.URL,
		ExplorerURL:  explorerURL,
		Score:        b.Total,
		Threshold:    b.Threshold,
		LiquidityUSD: c.LiquidityUSD,
		Volume24hUSD: c.Volume24hUSD,
	}
}

// USD renders a dollar amount with thousands separators and no decimals,
// e.g. $1,234,567. Shared by callers that display amounts outside the
// justification lines.
func USD(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 0)
}
