package pricing

import "math"

// Pricing holds USD prices per million tokens.
type Pricing struct {
	Input  float64 `json:"input" yaml:"input" validate:"gte=0"`
	Output float64 `json:"output" yaml:"output" validate:"gte=0"`
}

const perMillion = 1_000_000.0

// Cost returns the USD cost of a request, rounded to 6 decimal places.
func Cost(inputTokens, outputTokens int, p Pricing) float64 {
	cost := (float64(inputTokens)/perMillion)*p.Input + (float64(outputTokens)/perMillion)*p.Output
	return round6(cost)
}

func round6(x float64) float64 {
	return math.Round(x*1e6) / 1e6
}
