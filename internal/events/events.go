// Package events implements the connector's observer fan-out: the five
// mandatory order-lifecycle callbacks plus trade, error, balance, and
// position notifications. Handlers are invoked synchronously on the
// stream's processing path and MUST be non-blocking.
package events

// OrderListener receives order lifecycle notifications.
type OrderListener interface {
	OnOrderCreated(clientOrderID, exchangeOrderID string)
	OnOrderFilled(clientOrderID string, fillPrice, fillAmount float64)
	OnOrderCompleted(clientOrderID string, averageFillPrice, totalFilled float64)
	OnOrderCancelled(clientOrderID string)
	OnOrderFailed(clientOrderID, reason string)
}

// ExpiringOrderListener is an OrderListener that also distinguishes
// expiry from an ordinary cancel. Implementations that don't need the
// distinction can embed OrderListener alone; the dispatcher falls back to
// OnOrderCancelled for those.
type ExpiringOrderListener interface {
	OrderListener
	OnOrderExpired(clientOrderID string)
}

// TradeListener receives detailed fill notifications.
type TradeListener interface {
	OnTrade(clientOrderID, tradeID string, price, amount float64, feeCurrency string, feeAmount float64)
}

// ErrorListener receives connector-level error notifications.
type ErrorListener interface {
	OnError(errorCode, errorMessage string)
}

// BalanceListener receives account balance updates.
type BalanceListener interface {
	OnBalanceUpdate(asset string, available, total float64)
}

// PositionListener receives derivative position updates.
type PositionListener interface {
	OnPositionUpdate(pair, side string, size, entryPrice, unrealizedPnL float64)
}

// Dispatcher fans out events to at most one registered listener per
// channel. Registering nil clears that channel. All methods are safe to
// call with no listener registered (they become no-ops).
type Dispatcher struct {
	order    OrderListener
	trade    TradeListener
	err      ErrorListener
	balance  BalanceListener
	position PositionListener
}

// NewDispatcher returns a dispatcher with no listeners registered.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// SetOrderListener registers the order-lifecycle listener.
func (d *Dispatcher) SetOrderListener(l OrderListener) { d.order = l }

// SetTradeListener registers the trade listener.
func (d *Dispatcher) SetTradeListener(l TradeListener) { d.trade = l }

// SetErrorListener registers the error listener.
func (d *Dispatcher) SetErrorListener(l ErrorListener) { d.err = l }

// SetBalanceListener registers the balance listener.
func (d *Dispatcher) SetBalanceListener(l BalanceListener) { d.balance = l }

// SetPositionListener registers the position listener.
func (d *Dispatcher) SetPositionListener(l PositionListener) { d.position = l }

func (d *Dispatcher) EmitOrderCreated(clientOrderID, exchangeOrderID string) {
	if d.order != nil {
		d.order.OnOrderCreated(clientOrderID, exchangeOrderID)
	}
}

func (d *Dispatcher) EmitOrderFilled(clientOrderID string, fillPrice, fillAmount float64) {
	if d.order != nil {
		d.order.OnOrderFilled(clientOrderID, fillPrice, fillAmount)
	}
}

func (d *Dispatcher) EmitOrderCompleted(clientOrderID string, averageFillPrice, totalFilled float64) {
	if d.order != nil {
		d.order.OnOrderCompleted(clientOrderID, averageFillPrice, totalFilled)
	}
}

func (d *Dispatcher) EmitOrderCancelled(clientOrderID string) {
	if d.order != nil {
		d.order.OnOrderCancelled(clientOrderID)
	}
}

func (d *Dispatcher) EmitOrderFailed(clientOrderID, reason string) {
	if d.order != nil {
		d.order.OnOrderFailed(clientOrderID, reason)
	}
}

// EmitOrderExpired delegates to the expiring-aware OnOrderExpired when the
// registered listener implements it, otherwise falls back to
// OnOrderCancelled — matching events.h's default C++ behavior.
func (d *Dispatcher) EmitOrderExpired(clientOrderID string) {
	if expiring, ok := d.order.(ExpiringOrderListener); ok {
		expiring.OnOrderExpired(clientOrderID)
		return
	}
	d.EmitOrderCancelled(clientOrderID)
}

func (d *Dispatcher) EmitTrade(clientOrderID, tradeID string, price, amount float64, feeCurrency string, feeAmount float64) {
	if d.trade != nil {
		d.trade.OnTrade(clientOrderID, tradeID, price, amount, feeCurrency, feeAmount)
	}
}

func (d *Dispatcher) EmitError(errorCode, errorMessage string) {
	if d.err != nil {
		d.err.OnError(errorCode, errorMessage)
	}
}

func (d *Dispatcher) EmitBalanceUpdate(asset string, available, total float64) {
	if d.balance != nil {
		d.balance.OnBalanceUpdate(asset, available, total)
	}
}

func (d *Dispatcher) EmitPositionUpdate(pair, side string, size, entryPrice, unrealizedPnL float64) {
	if d.position != nil {
		d.position.OnPositionUpdate(pair, side, size, entryPrice, unrealizedPnL)
	}
}
