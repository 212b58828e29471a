// Package tracker implements the in-flight order tracker: the sole
// authority over InFlightOrder state, with a concurrent dual index (by
// client order ID and by exchange order ID) and a deterministic
// state-transition policy resilient to out-of-order and duplicate venue
// notifications.
package tracker

import (
	"fmt"
	"sync"
	"time"

	"github.com/latentspeed/hl-connector/pkg/types"
)

// ErrAlreadyTracked is returned by StartTracking for a duplicate client
// order ID.
var ErrAlreadyTracked = fmt.Errorf("client order id already tracked")

// ErrNotFound is returned when an operation references an unknown order.
var ErrNotFound = fmt.Errorf("order not found")

// ErrCloidCollision is returned by StartTracking when the supplied Cloid is
// already bound to a different in-flight order. Collisions are surfaced to
// the caller rather than silently overwritten, since a collided cloid would
// make the venue's ack unattributable.
var ErrCloidCollision = fmt.Errorf("cloid already in use by another tracked order")

// forward is the state-transition DAG used to reject regressions when two
// updates share the same timestamp (see ProcessOrderUpdate).
var forward = map[types.OrderState]int{
	types.PendingCreate:   0,
	types.Open:            1,
	types.PartiallyFilled: 2,
	types.PendingCancel:   3,
	types.Filled:          4,
	types.Cancelled:       4,
	types.Failed:          4,
}

// Tracker owns every InFlightOrder record for the process lifetime.
type Tracker struct {
	mu        sync.RWMutex
	byClient  map[string]*entry
	byExchange map[string]*entry
	byCloid   map[string]*entry
}

type entry struct {
	mu    sync.Mutex
	order types.InFlightOrder
}

// New returns an empty tracker.
func New() *Tracker {
	return &Tracker{
		byClient:   make(map[string]*entry),
		byExchange: make(map[string]*entry),
		byCloid:    make(map[string]*entry),
	}
}

// StartTracking inserts a new order in state PendingCreate. It fails if
// client_order_id is already tracked.
func (t *Tracker) StartTracking(order types.InFlightOrder) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.byClient[order.ClientOrderID]; exists {
		return ErrAlreadyTracked
	}
	if order.Cloid != "" {
		if _, exists := t.byCloid[order.Cloid]; exists {
			return ErrCloidCollision
		}
	}

	order.State = types.PendingCreate
	if order.Trades == nil {
		order.Trades = make(map[string]struct{})
	}
	if order.CreationTimestamp.IsZero() {
		order.CreationTimestamp = time.Now()
	}
	order.LastUpdateTimestamp = order.CreationTimestamp

	e := &entry{order: order}
	t.byClient[order.ClientOrderID] = e
	if order.Cloid != "" {
		t.byCloid[order.Cloid] = e
	}
	return nil
}

// StopTracking removes a record. Callers should only do this once state is
// terminal, or when explicitly abandoning the order.
func (t *Tracker) StopTracking(clientOrderID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.byClient[clientOrderID]
	if !ok {
		return ErrNotFound
	}
	delete(t.byClient, clientOrderID)
	if e.order.ExchangeOrderID != "" {
		delete(t.byExchange, e.order.ExchangeOrderID)
	}
	if e.order.Cloid != "" {
		delete(t.byCloid, e.order.Cloid)
	}
	return nil
}

// GetOrder returns a snapshot of the tracked order, if any.
func (t *Tracker) GetOrder(clientOrderID string) (types.InFlightOrder, bool) {
	t.mu.RLock()
	e, ok := t.byClient[clientOrderID]
	t.mu.RUnlock()
	if !ok {
		return types.InFlightOrder{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Snapshot(), true
}

// GetOrderByExchangeID returns a snapshot of the order bound to the given
// exchange order ID, if any.
func (t *Tracker) GetOrderByExchangeID(exchangeOrderID string) (types.InFlightOrder, bool) {
	t.mu.RLock()
	e, ok := t.byExchange[exchangeOrderID]
	t.mu.RUnlock()
	if !ok {
		return types.InFlightOrder{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Snapshot(), true
}

// GetOrderByCloid returns a snapshot of the order bound to the given
// client order identifier (cloid), if any. Cloid is the wire-level
// identifier the venue echoes back on order and fill frames; it is bound
// at StartTracking time, before any network round-trip, so it resolves
// an order even when the synchronous REST ack hasn't landed yet.
func (t *Tracker) GetOrderByCloid(cloid string) (types.InFlightOrder, bool) {
	t.mu.RLock()
	e, ok := t.byCloid[cloid]
	t.mu.RUnlock()
	if !ok {
		return types.InFlightOrder{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.order.Snapshot(), true
}

// AllFillableOrders returns a snapshot of every non-terminal order.
func (t *Tracker) AllFillableOrders() []types.InFlightOrder {
	t.mu.RLock()
	entries := make([]*entry, 0, len(t.byClient))
	for _, e := range t.byClient {
		entries = append(entries, e)
	}
	t.mu.RUnlock()

	out := make([]types.InFlightOrder, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.order.State.IsTerminal() {
			out = append(out, e.order.Snapshot())
		}
		e.mu.Unlock()
	}
	return out
}

// ProcessOrderUpdate applies a state transition. It binds exchange_order_id
// on first sighting and registers the secondary index entry. It is
// monotonic in UpdateTimestamp: an update strictly older than the record's
// current LastUpdateTimestamp is discarded. When timestamps are equal, the
// transition is accepted only if it advances strictly forward in the DAG.
// Terminal states absorb all further updates silently.
func (t *Tracker) ProcessOrderUpdate(update types.OrderUpdate) error {
	t.mu.RLock()
	e, ok := t.byClient[update.ClientOrderID]
	t.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.State.IsTerminal() {
		return nil
	}
	if update.UpdateTimestamp.Before(e.order.LastUpdateTimestamp) {
		return nil
	}
	if update.UpdateTimestamp.Equal(e.order.LastUpdateTimestamp) {
		if forward[update.NewState] <= forward[e.order.State] {
			return nil
		}
	}

	e.order.State = update.NewState
	e.order.LastUpdateTimestamp = update.UpdateTimestamp
	if update.Reason != "" {
		e.order.FailureReason = update.Reason
	}

	if update.ExchangeOrderID != "" && e.order.ExchangeOrderID == "" {
		e.order.ExchangeOrderID = update.ExchangeOrderID
		t.mu.Lock()
		t.byExchange[update.ExchangeOrderID] = e
		t.mu.Unlock()
	}

	return nil
}

// ProcessTradeUpdate applies a fill. If trade.TradeID has already been
// applied to this order, the call is a no-op. Otherwise it increments
// FilledAmount, updates AverageFillPrice via VWAP accumulation, records the
// trade ID, and transitions to Filled once FilledAmount >= Amount.
func (t *Tracker) ProcessTradeUpdate(trade types.TradeUpdate) error {
	t.mu.RLock()
	e, ok := t.byClient[trade.ClientOrderID]
	t.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.order.State.IsTerminal() {
		return nil
	}
	if _, applied := e.order.Trades[trade.TradeID]; applied {
		return nil
	}

	priorFilled := e.order.FilledAmount
	priorAvg := e.order.AverageFillPrice
	newFilled := priorFilled + trade.FillBaseAmount

	if newFilled > 0 {
		e.order.AverageFillPrice = (priorAvg*priorFilled + trade.FillPrice*trade.FillBaseAmount) / newFilled
	}
	e.order.FilledAmount = newFilled
	e.order.Trades[trade.TradeID] = struct{}{}

	if trade.ExchangeOrderID != "" && e.order.ExchangeOrderID == "" {
		e.order.ExchangeOrderID = trade.ExchangeOrderID
		t.mu.Lock()
		t.byExchange[trade.ExchangeOrderID] = e
		t.mu.Unlock()
	}

	switch {
	case newFilled >= e.order.Amount:
		e.order.State = types.Filled
	case newFilled > 0:
		e.order.State = types.PartiallyFilled
	}
	e.order.LastUpdateTimestamp = trade.FillTimestamp

	return nil
}
