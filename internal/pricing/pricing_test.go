package pricing_test

import (
	"testing"

	"github.com/prime3679/bishop-bench/internal/pricing"
)

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestCost(t *testing.T) {
	tests := []struct {
		name    string
		in, out int
		pricing pricing.Pricing
		want    float64
	}{
		{"million each", 1_000_000, 1_000_000, pricing.Pricing{Input: 3, Output: 15}, 18.0},
		{"zero tokens", 0, 0, pricing.Pricing{Input: 3, Output: 15}, 0},
		{"rounds to micro dollars", 1, 1, pricing.Pricing{Input: 3, Output: 15}, 0.000018},
		{"output only", 0, 500_000, pricing.Pricing{Input: 1, Output: 5}, 2.5},
		{"sub micro rounds down", 1, 0, pricing.Pricing{Input: 0.1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.Cost(tt.in, tt.out, tt.pricing)
			if abs(got-tt.want) > 1e-12 {
				t.Errorf("Cost(%d, %d) = %v, want %v", tt.in, tt.out, got, tt.want)
			}
		})
	}
}

func TestCostIsNonNegative(t *testing.T) {
	got := pricing.Cost(123, 456, pricing.Pricing{})
	if got != 0 {
		t.Errorf("expected 0 with free pricing, got %v", got)
	}
}
