// Package scoring evaluates discovered pairs against per-chain breakpoint
// tables. Everything in this package is pure: no I/O, no clocks other than
// the caller-supplied now, no hidden state.
package scoring

import (
	"fmt"
	"time"
)

// Step is one breakpoint of a monotonically increasing step function over a
// USD amount. A value earns the points of the highest step it reaches.
type Step struct {
	MinUSD float64 `mapstructure:"min_usd"`
	Points float64 `mapstructure:"points"`
}

// AgeBand awards points to pairs no older than MaxAge. Bands are ordered
// youngest-first; a pair earns the points of the first band it fits.
type AgeBand struct {
	MaxAge time.Duration `mapstructure:"max_age"`
	Points float64       `mapstructure:"points"`
}

// Params is the per-chain breakpoint table driving the scoring engine.
type Params struct {
	LiquiditySteps []Step    `mapstructure:"liquidity_steps"`
	VolumeSteps    []Step    `mapstructure:"volume_steps"`
	AgeBands       []AgeBand `mapstructure:"age_bands"`

	TrustedDexPoints float64 `mapstructure:"trusted_dex_points"`

	// TrapPenalty is applied when the oracle reports a honeypot. It is
	// large and negative so a trap verdict is effectively disqualifying.
	TrapPenalty float64 `mapstructure:"trap_penalty"`
	// LowFrictionPoints is awarded when both trade taxes are known and at
	// or below MaxTaxPct.
	LowFrictionPoints float64 `mapstructure:"low_friction_points"`
	MaxTaxPct         float64 `mapstructure:"max_tax_pct"`
}

// DefaultParams returns the stock breakpoint table. Chains may override any
// table wholesale in configuration.
func DefaultParams() Params {
	return Params{
		LiquiditySteps: []Step{
			{MinUSD: 2_500, Points: 0.5},
			{MinUSD: 10_000, Points: 1.5},
			{MinUSD: 50_000, Points: 2.5},
		},
		VolumeSteps: []Step{
			{MinUSD: 1_000, Points: 0.5},
			{MinUSD: 10_000, Points: 1.5},
			{MinUSD: 25_000, Points: 2.5},
		},
		AgeBands: []AgeBand{
			{MaxAge: 6 * time.Hour, Points: 3},
			{MaxAge: 24 * time.Hour, Points: 1},
		},
		TrustedDexPoints:  1,
		TrapPenalty:       -100,
		LowFrictionPoints: 1,
		MaxTaxPct:         10,
	}
}

// ChainParams bundles the scoring inputs derived from one chain's
// configuration.
type ChainParams struct {
	Params       Params
	TrustedDexes []string
	Threshold    float64
	MinAge       time.Duration
	MaxAge       time.Duration
}

// Validate checks that the breakpoint tables are well formed.
func (p Params) Validate() error {
	if err := validateSteps("liquidity_steps", p.LiquiditySteps); err != nil {
		return err
	}
	if err := validateSteps("volume_steps", p.VolumeSteps); err != nil {
		return err
	}
	var prev time.Duration
	for i, b := range p.AgeBands {
		if b.MaxAge <= prev {
			return fmt.Errorf("age_bands[%d]: max_age must be ascending and positive", i)
		}
		prev = b.MaxAge
	}
	if p.TrapPenalty > 0 {
		return fmt.Errorf("trap_penalty must not be positive")
	}
	if p.MaxTaxPct < 0 {
		return fmt.Errorf("max_tax_pct must not be negative")
	}
	return nil
}

func validateSteps(field string, steps []Step) error {
	if len(steps) == 0 {
		return fmt.Errorf("%s must contain at least one breakpoint", field)
	}
	prevUSD, prevPts := -1.0, -1.0
	for i, s := range steps {
		if s.MinUSD <= prevUSD {
			return fmt.Errorf("%s[%d]: min_usd must be ascending", field, i)
		}
		if s.Points <= prevPts {
			return fmt.Errorf("%s[%d]: points must be ascending", field, i)
		}
		prevUSD, prevPts = s.MinUSD, s.Points
	}
	return nil
}
