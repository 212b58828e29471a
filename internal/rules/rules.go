// Package rules caches per-pair trading rules (tick/step quantization,
// validation bounds) and the venue's asset-index table, both loaded once
// from the venue's metadata endpoint at connector initialization.
package rules

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/latentspeed/hl-connector/pkg/types"
)

// Cache is a read-mostly store of trading rules and asset indices, keyed by
// trading pair. Safe for concurrent use; writes happen only through Set
// during the load phase.
type Cache struct {
	mu      sync.RWMutex
	rules   map[types.TradingPair]types.TradingRule
	assetID map[types.TradingPair]int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		rules:   make(map[types.TradingPair]types.TradingRule),
		assetID: make(map[types.TradingPair]int),
	}
}

// Set installs or replaces the rule and asset index for a pair. Called only
// during the load phase.
func (c *Cache) Set(pair types.TradingPair, rule types.TradingRule, assetIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules[pair] = rule
	c.assetID[pair] = assetIndex
}

// Rule returns the rule for pair and whether one is loaded. Absence is
// non-fatal to callers that merely quantize; it IS fatal to the submit path,
// which must check ok before placing an order.
func (c *Cache) Rule(pair types.TradingPair) (types.TradingRule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.rules[pair]
	return r, ok
}

// AssetIndex returns the venue's small integer asset index for pair.
func (c *Cache) AssetIndex(pair types.TradingPair) (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.assetID[pair]
	return idx, ok
}

// QuantizePrice rounds price to the nearest tick, then to price_decimals.
// If no rule is loaded for pair, price is returned unchanged.
func (c *Cache) QuantizePrice(pair types.TradingPair, price float64) float64 {
	rule, ok := c.Rule(pair)
	if !ok || rule.TickSize <= 0 {
		return price
	}
	return quantize(price, rule.TickSize, rule.PriceDecimals)
}

// QuantizeSize rounds size to the nearest step, then to size_decimals.
// If no rule is loaded for pair, size is returned unchanged.
func (c *Cache) QuantizeSize(pair types.TradingPair, size float64) float64 {
	rule, ok := c.Rule(pair)
	if !ok || rule.StepSize <= 0 {
		return size
	}
	return quantize(size, rule.StepSize, rule.SizeDecimals)
}

func quantize(value, step float64, decimals int) float64 {
	d := decimal.NewFromFloat(value)
	s := decimal.NewFromFloat(step)
	ticks := d.Div(s).Round(0)
	quantized := ticks.Mul(s).Round(int32(decimals))
	f, _ := quantized.Float64()
	return f
}

// ValidateOrder checks (price, size) against the loaded rule for pair,
// returning a diagnostic error describing the first violated constraint, or
// nil if the order is valid. Absence of a rule is reported as an error: the
// submit path must ensure a rule exists before calling this.
func (c *Cache) ValidateOrder(pair types.TradingPair, price, size float64) error {
	rule, ok := c.Rule(pair)
	if !ok {
		return fmt.Errorf("no trading rule loaded for %s", pair)
	}
	if size < rule.MinOrderSize {
		return fmt.Errorf("order size %v is below minimum %v", size, rule.MinOrderSize)
	}
	if rule.MaxOrderSize > 0 && size > rule.MaxOrderSize {
		return fmt.Errorf("order size %v exceeds maximum %v", size, rule.MaxOrderSize)
	}
	if price < rule.MinPrice {
		return fmt.Errorf("order price %v is below minimum %v", price, rule.MinPrice)
	}
	if rule.MaxPrice > 0 && price > rule.MaxPrice {
		return fmt.Errorf("order price %v exceeds maximum %v", price, rule.MaxPrice)
	}
	notional := price * size
	if rule.MinNotional > 0 && notional < rule.MinNotional {
		return fmt.Errorf("order notional %v is below minimum %v", notional, rule.MinNotional)
	}
	return nil
}
