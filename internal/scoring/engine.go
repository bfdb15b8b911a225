package scoring

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"pairwatch/internal/models"
)

// Score evaluates one candidate against its chain's breakpoint table and
// the oracle's verdict. Deterministic and side-effect-free: identical
// inputs always produce an identical breakdown.
//
// Sub-scores are evaluated in the order liquidity, volume, age, venue,
// security; Reasons preserves that order for display.
func Score(c models.Candidate, v models.SecurityVerdict, p ChainParams, now time.Time) models.ScoreBreakdown {
	b := models.ScoreBreakdown{Threshold: p.Threshold}

	b.Liquidity = stepPoints(p.Params.LiquiditySteps, c.LiquidityUSD)
	b.Reasons = append(b.Reasons,
		fmt.Sprintf("liquidity %s (%+.1f)", usd(c.LiquidityUSD), b.Liquidity))

	b.Volume = stepPoints(p.Params.VolumeSteps, c.Volume24hUSD)
	b.Reasons = append(b.Reasons,
		fmt.Sprintf("24h volume %s (%+.1f)", usd(c.Volume24hUSD), b.Volume))

	age, known := c.Age(now)
	if known {
		b.Age = agePoints(p.Params.AgeBands, age)
		b.Reasons = append(b.Reasons,
			fmt.Sprintf("age %.1fh (%+.1f)", age.Hours(), b.Age))
	} else {
		b.Reasons = append(b.Reasons, "age unknown (+0.0)")
	}

	if trusted(p.TrustedDexes, c.DexID) {
		b.Venue = p.Params.TrustedDexPoints
		b.Reasons = append(b.Reasons,
			fmt.Sprintf("venue %s is trusted (%+.1f)", c.DexID, b.Venue))
	} else {
		b.Reasons = append(b.Reasons,
			fmt.Sprintf("venue %s is untrusted (+0.0)", c.DexID))
	}

	b.Security, b.SecurityInconclusive = securityPoints(v, p.Params, &b.Reasons)

	b.Total = b.Liquidity + b.Volume + b.Age + b.Venue + b.Security
	return b
}

// securityPoints maps a verdict to the security sub-score. An unavailable
// or empty verdict contributes exactly zero: absence of signal is neither
// safe nor unsafe.
func securityPoints(v models.SecurityVerdict, p Params, reasons *[]string) (pts float64, inconclusive bool) {
	if v.Trap == models.FlagYes {
		*reasons = append(*reasons, fmt.Sprintf("honeypot detected (%+.1f)", p.TrapPenalty))
		return p.TrapPenalty, false
	}
	if v.TaxKnown {
		if v.BuyTaxPct <= p.MaxTaxPct && v.SellTaxPct <= p.MaxTaxPct {
			*reasons = append(*reasons,
				fmt.Sprintf("buy tax %.1f%%, sell tax %.1f%% (%+.1f)",
					v.BuyTaxPct, v.SellTaxPct, p.LowFrictionPoints))
			return p.LowFrictionPoints, false
		}
		*reasons = append(*reasons,
			fmt.Sprintf("taxes %.1f%%/%.1f%% above %.1f%% ceiling (+0.0)",
				v.BuyTaxPct, v.SellTaxPct, p.MaxTaxPct))
		return 0, false
	}
	if v.Trap == models.FlagNo {
		*reasons = append(*reasons, "no honeypot flag, taxes unknown (+0.0)")
		return 0, false
	}
	*reasons = append(*reasons, "security check inconclusive (+0.0)")
	return 0, true
}

// stepPoints returns the points of the highest step the value reaches.
// Breakpoint comparison is inclusive: a value exactly on a step earns it.
func stepPoints(steps []Step, v float64) float64 {
	var pts float64
	for _, s := range steps {
		if v >= s.MinUSD {
			pts = s.Points
		}
	}
	return pts
}

// agePoints returns the points of the first band the age fits, or zero when
// the pair is older than every band.
func agePoints(bands []AgeBand, age time.Duration) float64 {
	for _, b := range bands {
		if age <= b.MaxAge {
			return b.Points
		}
	}
	return 0
}

func trusted(dexes []string, dexID string) bool {
	for _, d := range dexes {
		if d == dexID {
			return true
		}
	}
	return false
}

func usd(v float64) string {
	return "$" + humanize.CommafWithDigits(v, 0)
}
