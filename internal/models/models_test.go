package models

import (
	"testing"
	"time"
)

func validCandidate() Candidate {
	created := time.Now().Add(-2 * time.Hour)
	return Candidate{
		PairID:       "ethereum:0xpair",
		Chain:        "ethereum",
		TokenAddress: "0xtoken",
		TokenName:    "Test Token",
		TokenSymbol:  "TST",
		QuoteSymbol:  "WETH",
		DexID:        "uniswap",
		LiquidityUSD: 25000,
		Volume24hUSD: 10000,
		CreatedAt:    &created,
	}
}

func TestCandidate_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Candidate)
		wantErr bool
	}{
		{"valid", func(c *Candidate) {}, false},
		{"missing pair ID", func(c *Candidate) { c.PairID = "" }, true},
		{"missing chain", func(c *Candidate) { c.Chain = "" }, true},
		{"missing token address", func(c *Candidate) { c.TokenAddress = "" }, true},
		{"negative liquidity", func(c *Candidate) { c.LiquidityUSD = -1 }, true},
		{"negative volume", func(c *Candidate) { c.Volume24hUSD = -1 }, true},
		{"unknown creation time is fine", func(c *Candidate) { c.CreatedAt = nil }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCandidate_Age(t *testing.T) {
	now := time.Now()

	c := validCandidate()
	created := now.Add(-3 * time.Hour)
	c.CreatedAt = &created

	age, known := c.Age(now)
	if !known {
		t.Fatal("expected age to be known")
	}
	if age != 3*time.Hour {
		t.Errorf("age = %v, want 3h", age)
	}

	c.CreatedAt = nil
	if _, known := c.Age(now); known {
		t.Error("expected age to be unknown with nil CreatedAt")
	}
}

func TestFlag_String(t *testing.T) {
	if got := FlagUnknown.String(); got != "unknown" {
		t.Errorf("FlagUnknown = %q", got)
	}
	if got := FlagNo.String(); got != "no" {
		t.Errorf("FlagNo = %q", got)
	}
	if got := FlagYes.String(); got != "yes" {
		t.Errorf("FlagYes = %q", got)
	}
}

func TestSecurityVerdict_Known(t *testing.T) {
	var zero SecurityVerdict
	if zero.Known() {
		t.Error("zero verdict must carry no signal")
	}
	if !(SecurityVerdict{Trap: FlagNo}).Known() {
		t.Error("trap=no is a signal")
	}
	if !(SecurityVerdict{TaxKnown: true}).Known() {
		t.Error("known taxes are a signal")
	}
	if !(SecurityVerdict{Verified: FlagYes}).Known() {
		t.Error("verified=yes is a signal")
	}
}

func TestScoreBreakdown_AlertWorthy_InclusiveBoundary(t *testing.T) {
	b := ScoreBreakdown{Total: 5.0, Threshold: 5.0}
	if !b.AlertWorthy() {
		t.Error("total equal to threshold must alert (inclusive boundary)")
	}
	b.Total = 4.999
	if b.AlertWorthy() {
		t.Error("total below threshold must not alert")
	}
	b.Total = 5.001
	if !b.AlertWorthy() {
		t.Error("total above threshold must alert")
	}
}
