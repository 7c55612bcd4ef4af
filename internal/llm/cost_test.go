package llm

import (
	"math"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestComputeCost(t *testing.T) {
	usage := &schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 500_000}
	in, out, total := ComputeCost(usage, Pricing{InputPerM: 0.30, OutputPerM: 2.50})

	if !closeTo(in, 0.30) {
		t.Errorf("input cost = %v", in)
	}
	if !closeTo(out, 1.25) {
		t.Errorf("output cost = %v", out)
	}
	if !closeTo(total, 1.55) {
		t.Errorf("total cost = %v", total)
	}
}

func TestComputeCostNilUsage(t *testing.T) {
	if _, _, total := ComputeCost(nil, Pricing{InputPerM: 1, OutputPerM: 1}); total != 0 {
		t.Fatalf("nil usage cost = %v", total)
	}
}

func TestResolvePricingUnknownModelIsFree(t *testing.T) {
	if p := ResolvePricing("modelo-desconhecido"); p != (Pricing{}) {
		t.Fatalf("unknown model pricing = %+v", p)
	}
}
