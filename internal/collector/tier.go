package collector

import "time"

// Tier is a named collection cadence. Every collector is bound to exactly
// one tier and is invoked on that tier's interval.
type Tier int

const (
	TierFast Tier = iota
	TierMedium
	TierSlow
)

var allTiers = []Tier{TierFast, TierMedium, TierSlow}

func (t Tier) String() string {
	switch t {
	case TierFast:
		return "fast"
	case TierMedium:
		return "medium"
	case TierSlow:
		return "slow"
	default:
		return "unknown"
	}
}

// Intervals maps each tier to its configured interval.
type Intervals struct {
	Fast   time.Duration
	Medium time.Duration
	Slow   time.Duration
}

func (i Intervals) For(t Tier) time.Duration {
	switch t {
	case TierFast:
		return i.Fast
	case TierMedium:
		return i.Medium
	case TierSlow:
		return i.Slow
	default:
		return i.Slow
	}
}
