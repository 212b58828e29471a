// Package types defines the shared vocabulary for the connector: trading
// pairs, order lifecycle data, order book levels, and event payloads. It has
// no dependencies on internal packages so it can be imported by any layer.
package types

import "time"

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// TradeType is the direction of an order.
type TradeType string

const (
	Buy  TradeType = "BUY"
	Sell TradeType = "SELL"
)

// OrderType enumerates the supported order lifecycles.
type OrderType string

const (
	OrderTypeLimit      OrderType = "LIMIT"
	OrderTypeMarket     OrderType = "MARKET"
	OrderTypeLimitMaker OrderType = "LIMIT_MAKER" // post-only
	OrderTypeStopLimit  OrderType = "STOP_LIMIT"
	OrderTypeStopMarket OrderType = "STOP_MARKET"
)

// PositionAction describes whether an order opens, closes, or is neutral
// with respect to an existing position.
type PositionAction string

const (
	PositionNil   PositionAction = "NIL"
	PositionOpen  PositionAction = "OPEN"
	PositionClose PositionAction = "CLOSE"
)

// OrderState is the tracker's state machine. See internal/tracker for the
// transition table.
type OrderState string

const (
	PendingCreate   OrderState = "PENDING_CREATE"
	Open            OrderState = "OPEN"
	PartiallyFilled OrderState = "PARTIALLY_FILLED"
	PendingCancel   OrderState = "PENDING_CANCEL"
	Filled          OrderState = "FILLED"
	Cancelled       OrderState = "CANCELLED"
	Failed          OrderState = "FAILED"
)

// IsTerminal reports whether no further transition is possible.
func (s OrderState) IsTerminal() bool {
	return s == Filled || s == Cancelled || s == Failed
}

// Liquidity identifies which side of a trade an order was on.
type Liquidity string

const (
	Maker Liquidity = "maker"
	Taker Liquidity = "taker"
)

// ————————————————————————————————————————————————————————————————————————
// Trading pair, rules, and order book
// ————————————————————————————————————————————————————————————————————————

// TradingPair is a canonical "BASE-QUOTE" string, e.g. "BTC-USD".
type TradingPair string

// TradingRule carries a venue's per-pair quantization and validation
// constraints, loaded once at connector initialization and treated as
// immutable afterwards.
type TradingRule struct {
	TradingPair TradingPair

	MinPrice     float64
	MaxPrice     float64
	TickSize     float64
	PriceDecimals int

	MinOrderSize float64
	MaxOrderSize float64
	MinNotional  float64
	StepSize     float64
	SizeDecimals int

	SupportsPostOnly bool
	SupportsMarket   bool
}

// IsTradingEnabled reports whether the rule carries usable constraints.
func (r TradingRule) IsTradingEnabled() bool {
	return r.MinOrderSize > 0 && r.TickSize > 0
}

// PriceLevel is one bid or ask level in an order book.
type PriceLevel struct {
	Price float64
	Size  float64
}

// ————————————————————————————————————————————————————————————————————————
// Orders
// ————————————————————————————————————————————————————————————————————————

// OrderParams describes a placement intent issued by a strategy.
type OrderParams struct {
	TradingPair    TradingPair
	Amount         float64
	Price          float64
	OrderType      OrderType
	PositionAction PositionAction
	Leverage       *int
	TriggerPrice   *float64
	// ExtraParams carries venue-specific influence on behavior, e.g. an
	// explicit "cloid" the caller wants used instead of a generated one.
	ExtraParams map[string]string
}

// InFlightOrder is the tracker's authoritative record of one order's
// lifecycle. Once State is terminal, the record is treated as immutable by
// every caller other than the tracker itself.
type InFlightOrder struct {
	ClientOrderID     string
	ExchangeOrderID   string // empty until bound
	TradingPair       TradingPair
	OrderType         OrderType
	TradeType         TradeType
	PositionAction    PositionAction
	Price             float64
	Amount            float64
	FilledAmount      float64
	AverageFillPrice  float64
	State             OrderState
	CreationTimestamp time.Time
	LastUpdateTimestamp time.Time
	Cloid             string
	FailureReason     string
	Trades            map[string]struct{} // applied trade IDs, for idempotence
}

// Snapshot returns a shallow copy safe to hand to callers outside the
// tracker's lock.
func (o InFlightOrder) Snapshot() InFlightOrder {
	cp := o
	cp.Trades = make(map[string]struct{}, len(o.Trades))
	for id := range o.Trades {
		cp.Trades[id] = struct{}{}
	}
	return cp
}

// TradeUpdate reports a single fill against a tracked order.
type TradeUpdate struct {
	TradeID         string
	ClientOrderID   string
	ExchangeOrderID string
	TradingPair     TradingPair
	FillPrice       float64
	FillBaseAmount  float64
	FillQuoteAmount float64
	FeeAmount       float64
	FeeCurrency     string
	FillTimestamp   time.Time
	Liquidity       Liquidity
}

// OrderUpdate drives a tracker state transition independent of fills.
type OrderUpdate struct {
	ClientOrderID   string
	ExchangeOrderID string
	TradingPair     TradingPair
	NewState        OrderState
	UpdateTimestamp time.Time
	Reason          string
}

// ————————————————————————————————————————————————————————————————————————
// Order book wire messages
// ————————————————————————————————————————————————————————————————————————

// BookMessageType distinguishes a full snapshot from an incremental delta.
type BookMessageType string

const (
	BookSnapshot BookMessageType = "snapshot"
	BookDelta    BookMessageType = "delta"
)

// OrderBookMessage is the decoded form of an inbound market-data frame,
// handed to registered observers.
type OrderBookMessage struct {
	Type        BookMessageType
	TradingPair TradingPair
	Timestamp   time.Time
	Bids        []PriceLevel
	Asks        []PriceLevel
}

// ————————————————————————————————————————————————————————————————————————
// User-stream messages
// ————————————————————————————————————————————————————————————————————————

// UserMessageType distinguishes the four private-stream event kinds.
type UserMessageType string

const (
	UserOrderUpdate    UserMessageType = "order_update"
	UserTrade          UserMessageType = "trade"
	UserBalanceUpdate  UserMessageType = "balance_update"
	UserPositionUpdate UserMessageType = "position_update"
)

// UserStreamMessage is the decoded form of an inbound private-stream frame.
type UserStreamMessage struct {
	Type      UserMessageType
	Timestamp time.Time
	Order     *OrderUpdate
	Trade     *TradeUpdate
	Balance   *BalanceUpdate
	Position  *PositionUpdate
}

// BalanceUpdate reports an account balance change for one asset.
type BalanceUpdate struct {
	Asset             string
	AvailableBalance  float64
	TotalBalance      float64
}

// PositionMode distinguishes one-way from hedge position accounting.
type PositionMode string

const (
	PositionModeOneWay PositionMode = "ONE_WAY"
	PositionModeHedge  PositionMode = "HEDGE"
)

// PositionSide is the directional sign of an open position.
type PositionSide string

const (
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// Position is a derivative connector's view of an open position for one
// trading pair.
type Position struct {
	TradingPair    TradingPair
	Side           PositionSide
	Size           float64
	EntryPrice     float64
	UnrealizedPnL  float64
	Leverage       int
	LiquidationPx  float64
	LastUpdated    time.Time
}

// IsLong reports whether the position is on the long side.
func (p Position) IsLong() bool { return p.Side == PositionLong }

// PositionUpdate carries a position change from the user stream.
type PositionUpdate struct {
	TradingPair   TradingPair
	Side          PositionSide
	Size          float64
	EntryPrice    float64
	UnrealizedPnL float64
}
