// Package reason maps venue-specific raw rejection strings to the canonical
// error kinds the connector's callers reason about.
package reason

import "strings"

// Code is a canonical, venue-independent error kind.
type Code string

const (
	OK                 Code = "ok"
	InvalidParams      Code = "invalid_params"
	RiskBlocked        Code = "risk_blocked"
	InsufficientBalance Code = "insufficient_balance"
	PostOnlyViolation  Code = "post_only_violation"
	MinSize            Code = "min_size"
	PriceOutOfBounds   Code = "price_out_of_bounds"
	RateLimited        Code = "rate_limited"
	NetworkError       Code = "network_error"
	Expired            Code = "expired"
	VenueReject        Code = "venue_reject"
)

// knownTags maps Hyperliquid-style raw rejection tags to canonical codes.
var knownTags = map[string]Code{
	"TickRejected":                    PriceOutOfBounds,
	"OracleRejected":                  PriceOutOfBounds,
	"BadAloPxRejected":                PostOnlyViolation,
	"PerpMaxPositionRejected":         RiskBlocked,
	"MinTradeNtlRejected":             MinSize,
	"MinTradeSpotNtlRejected":         MinSize,
	"InsufficientSpotBalanceRejected": InsufficientBalance,
	"PerpMarginRejected":              InsufficientBalance,
	"ReduceOnlyRejected":              InvalidParams,
	"IocCancelRejected":               VenueReject,
	"MarketOrderNoLiquidityRejected":  VenueReject,
}

// Result is the mapper's output: a canonical code plus a human-readable
// message derived from (or defaulting to) the raw text.
type Result struct {
	Code Code
	Text string
}

// Map canonicalizes a venue raw rejection string. An empty raw string maps
// to OK. Unknown raw codes map to VenueReject, except a raw message that
// contains "balance" (case-insensitive), which maps to InsufficientBalance
// the way a generic margin/balance rejection would.
func Map(raw string) Result {
	if raw == "" {
		return Result{Code: OK, Text: "OK"}
	}
	if code, ok := knownTags[raw]; ok {
		return Result{Code: code, Text: raw}
	}
	if strings.Contains(strings.ToLower(raw), "balance") {
		return Result{Code: InsufficientBalance, Text: raw}
	}
	return Result{Code: VenueReject, Text: raw}
}
