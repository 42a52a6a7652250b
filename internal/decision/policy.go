// Package decision maps a delay probability to the three-tier risk verdict
// returned to callers. The low threshold is tuned at training time and
// travels in the artifact metadata; the upper bound is configuration.
package decision

// Tier is the risk band a probability falls into.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

// String returns the wire value for the tier.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Verdict is the labeled outcome for one probability.
type Verdict struct {
	Tier     Tier
	Forecast string
	Color    string
}

// Policy is a two-threshold piecewise tiering rule. Band boundaries are
// inclusive on the lower bound: a probability equal to Low falls into the
// medium band, equal to High into the high band.
type Policy struct {
	Low  float64
	High float64
}

// DefaultHigh is the upper boundary used when none is configured.
const DefaultHigh = 0.70

// Evaluate classifies a probability of delay.
func (p Policy) Evaluate(prob float64) Verdict {
	switch {
	case prob < p.Low:
		return Verdict{Tier: TierLow, Forecast: "PONTUAL", Color: "green"}
	case prob < p.High:
		return Verdict{Tier: TierMedium, Forecast: "ALERTA", Color: "yellow"}
	default:
		return Verdict{Tier: TierHigh, Forecast: "ATRASO PROVAVEL", Color: "red"}
	}
}
