package models

// Flag is a tri-state boolean for safety signals. The zero value is
// FlagUnknown so a zero SecurityVerdict carries no signal at all.
// Unknown must never be conflated with a pass or a fail.
type Flag int

const (
	FlagUnknown Flag = iota
	FlagNo
	FlagYes
)

func (f Flag) String() string {
	switch f {
	case FlagNo:
		return "no"
	case FlagYes:
		return "yes"
	default:
		return "unknown"
	}
}

// SecurityVerdict holds the safety signals for one token address as reported
// by a security oracle. The zero value means the oracle was unavailable or
// returned nothing usable.
type SecurityVerdict struct {
	// Trap reports whether the token contract is a honeypot.
	Trap Flag
	// BuyTaxPct and SellTaxPct are contract-level trade frictions in
	// percent. Only meaningful when TaxKnown is true.
	BuyTaxPct  float64
	SellTaxPct float64
	TaxKnown   bool
	// Verified reports whether the contract source is published.
	Verified Flag
}

// Known reports whether the verdict carries any signal at all.
func (v SecurityVerdict) Known() bool {
	return v.Trap != FlagUnknown || v.TaxKnown || v.Verified != FlagUnknown
}
