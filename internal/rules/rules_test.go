package rules

import (
	"testing"

	"github.com/latentspeed/hl-connector/pkg/types"
)

func testRule() types.TradingRule {
	return types.TradingRule{
		TradingPair:  "ETH-USD",
		MinPrice:     0.01,
		MaxPrice:     1_000_000,
		TickSize:     0.01,
		PriceDecimals: 5,
		MinOrderSize: 0.001,
		MaxOrderSize: 1000,
		MinNotional:  10,
		StepSize:     0.001,
		SizeDecimals: 3,
	}
}

func TestQuantizePriceAndSize(t *testing.T) {
	c := NewCache()
	c.Set("ETH-USD", testRule(), 1)

	gotPrice := c.QuantizePrice("ETH-USD", 2500.12678)
	if gotPrice != 2500.13 {
		t.Errorf("QuantizePrice = %v, want 2500.13", gotPrice)
	}

	gotSize := c.QuantizeSize("ETH-USD", 0.12345)
	if gotSize != 0.123 {
		t.Errorf("QuantizeSize = %v, want 0.123", gotSize)
	}
}

func TestQuantizeWithoutRuleIsNoOp(t *testing.T) {
	c := NewCache()
	if got := c.QuantizePrice("BTC-USD", 123.456); got != 123.456 {
		t.Errorf("QuantizePrice without rule = %v, want unchanged 123.456", got)
	}
}

func TestValidateOrder(t *testing.T) {
	c := NewCache()
	c.Set("ETH-USD", testRule(), 1)

	if err := c.ValidateOrder("ETH-USD", 2500, 1); err != nil {
		t.Errorf("expected valid order, got error: %v", err)
	}
	if err := c.ValidateOrder("ETH-USD", 2500, 0.0001); err == nil {
		t.Error("expected min size violation error")
	}
	if err := c.ValidateOrder("ETH-USD", 2500, 0.002); err == nil {
		t.Error("expected min notional violation error")
	}
	if err := c.ValidateOrder("BTC-USD", 1, 1); err == nil {
		t.Error("expected error for missing rule")
	}
}

func TestAssetIndex(t *testing.T) {
	c := NewCache()
	c.Set("ETH-USD", testRule(), 7)
	idx, ok := c.AssetIndex("ETH-USD")
	if !ok || idx != 7 {
		t.Errorf("AssetIndex = (%d, %v), want (7, true)", idx, ok)
	}
	if _, ok := c.AssetIndex("BTC-USD"); ok {
		t.Error("expected AssetIndex to report not-found for unloaded pair")
	}
}
