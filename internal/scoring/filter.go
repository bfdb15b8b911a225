package scoring

import (
	"time"

	"pairwatch/internal/models"
)

// FreshEnough reports whether a candidate falls inside the chain's age
// window [MinAge, MaxAge]. A candidate with no creation timestamp passes:
// unknown age is included conservatively rather than dropped. MinAge
// excludes pairs still initializing; MaxAge bounds staleness.
func FreshEnough(c models.Candidate, p ChainParams, now time.Time) bool {
	age, known := c.Age(now)
	if !known {
		return true
	}
	return age >= p.MinAge && age <= p.MaxAge
}
