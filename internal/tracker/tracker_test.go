package tracker

import (
	"testing"
	"time"

	"github.com/latentspeed/hl-connector/pkg/types"
)

func newOrder(cid string, amount, price float64) types.InFlightOrder {
	return types.InFlightOrder{
		ClientOrderID: cid,
		TradingPair:   "ETH-USD",
		OrderType:     types.OrderTypeLimit,
		TradeType:     types.Buy,
		Amount:        amount,
		Price:         price,
	}
}

func TestStartTrackingRejectsDuplicate(t *testing.T) {
	tr := New()
	if err := tr.StartTracking(newOrder("cid-1", 1, 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := tr.StartTracking(newOrder("cid-1", 1, 100)); err != ErrAlreadyTracked {
		t.Errorf("expected ErrAlreadyTracked, got %v", err)
	}
}

func TestStartTrackingRejectsCloidCollision(t *testing.T) {
	tr := New()
	o1 := newOrder("cid-1", 1, 100)
	o1.Cloid = "0xabc"
	if err := tr.StartTracking(o1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o2 := newOrder("cid-2", 1, 100)
	o2.Cloid = "0xabc"
	if err := tr.StartTracking(o2); err != ErrCloidCollision {
		t.Errorf("expected ErrCloidCollision, got %v", err)
	}
}

func TestHappyPathLimitBuy(t *testing.T) {
	tr := New()
	tr.StartTracking(newOrder("cid-1", 0.1, 2500))

	order, _ := tr.GetOrder("cid-1")
	if order.State != types.PendingCreate {
		t.Fatalf("initial state = %v, want PendingCreate", order.State)
	}

	err := tr.ProcessOrderUpdate(types.OrderUpdate{
		ClientOrderID:   "cid-1",
		ExchangeOrderID: "98765",
		NewState:        types.Open,
		UpdateTimestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("ProcessOrderUpdate: %v", err)
	}

	order, _ = tr.GetOrder("cid-1")
	if order.State != types.Open || order.ExchangeOrderID != "98765" {
		t.Errorf("order = %+v, want Open with exchange id 98765", order)
	}

	byExchange, ok := tr.GetOrderByExchangeID("98765")
	if !ok || byExchange.ClientOrderID != "cid-1" {
		t.Errorf("GetOrderByExchangeID failed to resolve: %+v, %v", byExchange, ok)
	}
}

func TestFillBeforeAck(t *testing.T) {
	tr := New()
	tr.StartTracking(newOrder("cid-1", 0.1, 2500))

	err := tr.ProcessTradeUpdate(types.TradeUpdate{
		TradeID:        "t1",
		ClientOrderID:  "cid-1",
		FillPrice:      2500.0,
		FillBaseAmount: 0.1,
		FillTimestamp:  time.Now(),
	})
	if err != nil {
		t.Fatalf("ProcessTradeUpdate: %v", err)
	}

	order, _ := tr.GetOrder("cid-1")
	if order.State != types.Filled {
		t.Errorf("state = %v, want Filled", order.State)
	}
	if order.AverageFillPrice != 2500.0 || order.FilledAmount != 0.1 {
		t.Errorf("fill accounting wrong: %+v", order)
	}

	// A later ack must not regress the terminal state.
	err = tr.ProcessOrderUpdate(types.OrderUpdate{
		ClientOrderID:   "cid-1",
		ExchangeOrderID: "98765",
		NewState:        types.Open,
		UpdateTimestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("ProcessOrderUpdate: %v", err)
	}
	order, _ = tr.GetOrder("cid-1")
	if order.State != types.Filled {
		t.Errorf("terminal state regressed to %v", order.State)
	}
}

func TestDuplicateTradeIsIdempotent(t *testing.T) {
	tr := New()
	tr.StartTracking(newOrder("cid-1", 1.0, 100))

	trade := types.TradeUpdate{
		TradeID:        "t1",
		ClientOrderID:  "cid-1",
		FillPrice:      100,
		FillBaseAmount: 0.5,
		FillTimestamp:  time.Now(),
	}
	tr.ProcessTradeUpdate(trade)
	first, _ := tr.GetOrder("cid-1")

	tr.ProcessTradeUpdate(trade)
	second, _ := tr.GetOrder("cid-1")

	if first.FilledAmount != second.FilledAmount {
		t.Errorf("duplicate trade mutated filled amount: %v -> %v", first.FilledAmount, second.FilledAmount)
	}
}

func TestVenueRejection(t *testing.T) {
	tr := New()
	tr.StartTracking(newOrder("cid-1", 0.001, 1.0))

	err := tr.ProcessOrderUpdate(types.OrderUpdate{
		ClientOrderID:   "cid-1",
		NewState:        types.Failed,
		UpdateTimestamp: time.Now(),
		Reason:          "BadAloPxRejected",
	})
	if err != nil {
		t.Fatalf("ProcessOrderUpdate: %v", err)
	}
	order, _ := tr.GetOrder("cid-1")
	if order.State != types.Failed || order.FailureReason != "BadAloPxRejected" {
		t.Errorf("order = %+v, want Failed with reason BadAloPxRejected", order)
	}
}

func TestCancelRacingFillFillWins(t *testing.T) {
	tr := New()
	o := newOrder("cid-1", 0.1, 2500)
	tr.StartTracking(o)
	tr.ProcessOrderUpdate(types.OrderUpdate{ClientOrderID: "cid-1", ExchangeOrderID: "1", NewState: types.Open, UpdateTimestamp: time.Now()})

	t1 := time.Now()
	tr.ProcessTradeUpdate(types.TradeUpdate{TradeID: "t1", ClientOrderID: "cid-1", FillPrice: 2500, FillBaseAmount: 0.05, FillTimestamp: t1})

	t2 := t1.Add(time.Millisecond)
	tr.ProcessOrderUpdate(types.OrderUpdate{ClientOrderID: "cid-1", NewState: types.PendingCancel, UpdateTimestamp: t2})

	t3 := t2.Add(time.Millisecond)
	tr.ProcessTradeUpdate(types.TradeUpdate{TradeID: "t2", ClientOrderID: "cid-1", FillPrice: 2500, FillBaseAmount: 0.05, FillTimestamp: t3})

	order, _ := tr.GetOrder("cid-1")
	if order.State != types.Filled {
		t.Errorf("state = %v, want Filled (fill should win over pending cancel)", order.State)
	}

	// A later cancel confirmation must not regress the terminal Filled state.
	tr.ProcessOrderUpdate(types.OrderUpdate{ClientOrderID: "cid-1", NewState: types.Cancelled, UpdateTimestamp: t3.Add(time.Millisecond)})
	order, _ = tr.GetOrder("cid-1")
	if order.State != types.Filled {
		t.Errorf("state regressed to %v after cancel confirmation", order.State)
	}
}

func TestOlderUpdateIsNoOp(t *testing.T) {
	tr := New()
	tr.StartTracking(newOrder("cid-1", 1, 100))

	t1 := time.Now()
	tr.ProcessOrderUpdate(types.OrderUpdate{ClientOrderID: "cid-1", NewState: types.Open, UpdateTimestamp: t1})

	older := t1.Add(-time.Second)
	tr.ProcessOrderUpdate(types.OrderUpdate{ClientOrderID: "cid-1", NewState: types.PendingCancel, UpdateTimestamp: older})

	order, _ := tr.GetOrder("cid-1")
	if order.State != types.Open {
		t.Errorf("an older update mutated state to %v", order.State)
	}
}

func TestStopTrackingRemovesBothIndices(t *testing.T) {
	tr := New()
	tr.StartTracking(newOrder("cid-1", 1, 100))
	tr.ProcessOrderUpdate(types.OrderUpdate{ClientOrderID: "cid-1", ExchangeOrderID: "77", NewState: types.Open, UpdateTimestamp: time.Now()})

	if err := tr.StopTracking("cid-1"); err != nil {
		t.Fatalf("StopTracking: %v", err)
	}
	if _, ok := tr.GetOrder("cid-1"); ok {
		t.Error("expected order removed from client index")
	}
	if _, ok := tr.GetOrderByExchangeID("77"); ok {
		t.Error("expected order removed from exchange index")
	}
}
