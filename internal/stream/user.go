package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/latentspeed/hl-connector/internal/events"
	"github.com/latentspeed/hl-connector/internal/tracker"
	"github.com/latentspeed/hl-connector/pkg/types"
)

// UserSession is the venue's authenticated private feed: order updates,
// fills, balances, and positions for a single account. It resolves every
// inbound frame against the tracker (cloid first, exchange order id as
// fallback) to recover the client-assigned id the tracker indexes by,
// then drives the tracker's state machine and fans the result out
// through the event dispatcher.
type UserSession struct {
	*session

	user string
	trk  *tracker.Tracker
	disp *events.Dispatcher
}

// NewUserSession builds a user-stream session against wsURL for the given
// account address.
func NewUserSession(wsURL, userAddress string, log *slog.Logger, trk *tracker.Tracker, disp *events.Dispatcher) *UserSession {
	if log == nil {
		log = slog.Default()
	}
	u := &UserSession{user: userAddress, trk: trk, disp: disp}
	u.session = newSession("user", wsURL, log, u.dispatch, u.resubscribeAll)
	return u
}

// Start begins connecting and streaming in the background.
func (u *UserSession) Start(ctx context.Context) { u.session.Start(ctx) }

// Stop tears the session down.
func (u *UserSession) Stop() { u.session.Stop() }

func (u *UserSession) resubscribeAll(_ *session) error {
	for _, channel := range []string{"userEvents", "userFills", "webData2"} {
		msg := subscribeMsg{Method: "subscribe", Subscription: subscriptionTag{Type: channel, User: u.user}}
		if err := u.session.send(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
	}
	return nil
}

func (u *UserSession) dispatch(raw []byte) {
	var env channelEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		u.log.Warn("user frame: bad envelope", "error", err)
		return
	}

	switch env.Channel {
	case "userEvents":
		u.handleOrderUpdates(raw)
	case "userFills":
		u.handleFills(raw)
	case "webData2":
		u.handleWebData(raw)
	}
}

// resolveOrder looks an inbound frame's order up by cloid first, falling
// back to exchange_order_id. A fill or order update can arrive before the
// synchronous REST ack has bound exchange_order_id into the tracker; cloid
// is assigned at StartTracking time and is always resolvable, so it must
// be tried first.
func (u *UserSession) resolveOrder(cloid, exchangeOrderID string) (types.InFlightOrder, bool) {
	if cloid != "" {
		if order, found := u.trk.GetOrderByCloid(cloid); found {
			return order, true
		}
	}
	return u.trk.GetOrderByExchangeID(exchangeOrderID)
}

var orderStatusMap = map[string]types.OrderState{
	"open":     types.Open,
	"filled":   types.Filled,
	"canceled": types.Cancelled,
	"rejected": types.Failed,
}

func (u *UserSession) handleOrderUpdates(raw []byte) {
	var frame orderUpdateFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		u.log.Warn("user frame: bad order update", "error", err)
		return
	}

	for _, w := range frame.Data.Orders {
		newState, ok := orderStatusMap[w.Status]
		if !ok {
			continue
		}

		oid := strconv.FormatInt(w.OID, 10)
		order, found := u.resolveOrder(w.Cloid, oid)
		if !found {
			u.log.Warn("user stream: order update for unknown order", "cloid", w.Cloid, "oid", oid)
			continue
		}

		update := types.OrderUpdate{
			ClientOrderID:   order.ClientOrderID,
			ExchangeOrderID: oid,
			TradingPair:     order.TradingPair,
			NewState:        newState,
			UpdateTimestamp: timeFromMillis(w.StatusTS),
		}
		if err := u.trk.ProcessOrderUpdate(update); err != nil {
			u.log.Warn("user stream: process order update", "error", err)
			continue
		}
		if u.metrics != nil {
			u.metrics.OrderStateTransitions.WithLabelValues(string(newState)).Inc()
		}

		switch newState {
		case types.Cancelled:
			u.disp.EmitOrderCancelled(order.ClientOrderID)
		case types.Failed:
			u.disp.EmitOrderFailed(order.ClientOrderID, "rejected")
		}
	}
}

func (u *UserSession) handleFills(raw []byte) {
	var frame fillFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		u.log.Warn("user frame: bad fill", "error", err)
		return
	}

	for _, f := range frame.Data.Fills {
		oid := strconv.FormatInt(f.OID, 10)
		order, found := u.resolveOrder(f.Cloid, oid)
		if !found {
			u.log.Warn("user stream: fill for unknown order", "cloid", f.Cloid, "oid", oid)
			continue
		}

		px, err1 := strconv.ParseFloat(f.Px, 64)
		sz, err2 := strconv.ParseFloat(f.Sz, 64)
		fee, _ := strconv.ParseFloat(f.Fee, 64)
		if err1 != nil || err2 != nil {
			u.log.Warn("user stream: bad fill price/size", "price", f.Px, "size", f.Sz)
			continue
		}

		trade := types.TradeUpdate{
			TradeID:         strconv.FormatInt(f.TID, 10),
			ClientOrderID:   order.ClientOrderID,
			ExchangeOrderID: oid,
			TradingPair:     order.TradingPair,
			FillPrice:       px,
			FillBaseAmount:  sz,
			FillQuoteAmount: px * sz,
			FeeAmount:       fee,
			FeeCurrency:     f.FeeTok,
			FillTimestamp:   timeFromMillis(f.Time),
		}
		if err := u.trk.ProcessTradeUpdate(trade); err != nil {
			u.log.Warn("user stream: process trade update", "error", err)
			continue
		}

		u.disp.EmitTrade(order.ClientOrderID, trade.TradeID, px, sz, f.FeeTok, fee)
		updated, _ := u.trk.GetOrder(order.ClientOrderID)
		u.disp.EmitOrderFilled(order.ClientOrderID, px, sz)
		if u.metrics != nil {
			u.metrics.OrderStateTransitions.WithLabelValues(string(updated.State)).Inc()
		}
		if updated.State == types.Filled {
			u.disp.EmitOrderCompleted(order.ClientOrderID, updated.AverageFillPrice, updated.FilledAmount)
		}
	}
}

func (u *UserSession) handleWebData(raw []byte) {
	var frame webData2Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		u.log.Warn("user frame: bad webData2", "error", err)
		return
	}

	for _, b := range frame.Data.Balances {
		avail, err1 := strconv.ParseFloat(b.Available, 64)
		total, err2 := strconv.ParseFloat(b.Total, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		u.disp.EmitBalanceUpdate(b.Coin, avail, total)
	}

	for _, p := range frame.Data.Positions {
		sz, err1 := strconv.ParseFloat(p.Szi, 64)
		entry, err2 := strconv.ParseFloat(p.EntryPx, 64)
		pnl, _ := strconv.ParseFloat(p.UnrealizedPnl, 64)
		if err1 != nil || err2 != nil {
			continue
		}
		side := "LONG"
		if sz < 0 {
			side = "SHORT"
		}
		u.disp.EmitPositionUpdate(p.Coin+"-USD", side, sz, entry, pnl)
	}
}

func timeFromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
