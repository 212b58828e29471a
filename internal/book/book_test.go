package book

import (
	"testing"

	"github.com/latentspeed/hl-connector/pkg/types"
)

func TestApplySnapshotFiltersZeroSizes(t *testing.T) {
	b := New("BTC-USD")
	b.ApplySnapshot(
		[]types.PriceLevel{{Price: 100, Size: 1}, {Price: 99, Size: 0}},
		[]types.PriceLevel{{Price: 101, Size: 2}},
	)

	bids := b.TopBids(10)
	if len(bids) != 1 || bids[0].Price != 100 {
		t.Errorf("TopBids = %+v, want single level at 100", bids)
	}
	asks := b.TopAsks(10)
	if len(asks) != 1 || asks[0].Price != 101 {
		t.Errorf("TopAsks = %+v, want single level at 101", asks)
	}
}

func TestApplyDeltaDeleteOnZeroSize(t *testing.T) {
	b := New("BTC-USD")
	b.ApplyDelta(types.Buy, types.PriceLevel{Price: 100, Size: 5})
	if px, _, ok := b.BestBid(); !ok || px != 100 {
		t.Fatalf("expected bid at 100, got (%v, %v)", px, ok)
	}
	b.ApplyDelta(types.Buy, types.PriceLevel{Price: 100, Size: 0})
	if _, _, ok := b.BestBid(); ok {
		t.Error("expected bid at 100 to be deleted")
	}
}

func TestBestBidAskAndMidPrice(t *testing.T) {
	b := New("BTC-USD")
	b.ApplyDelta(types.Buy, types.PriceLevel{Price: 99, Size: 1})
	b.ApplyDelta(types.Buy, types.PriceLevel{Price: 100, Size: 1})
	b.ApplyDelta(types.Sell, types.PriceLevel{Price: 101, Size: 1})
	b.ApplyDelta(types.Sell, types.PriceLevel{Price: 102, Size: 1})

	bidPx, _, _ := b.BestBid()
	askPx, _, _ := b.BestAsk()
	if bidPx != 100 || askPx != 101 {
		t.Errorf("best bid/ask = %v/%v, want 100/101", bidPx, askPx)
	}
	mid, ok := b.MidPrice()
	if !ok || mid != 100.5 {
		t.Errorf("MidPrice = (%v, %v), want (100.5, true)", mid, ok)
	}
	if !b.IsValid() {
		t.Error("expected book to be valid (best_bid < best_ask)")
	}
}

func TestIsValidOnEmptySides(t *testing.T) {
	b := New("BTC-USD")
	if !b.IsValid() {
		t.Error("an empty book should be trivially valid")
	}
}

func TestTopBidsOrdering(t *testing.T) {
	b := New("BTC-USD")
	for _, px := range []float64{98, 100, 99} {
		b.ApplyDelta(types.Buy, types.PriceLevel{Price: px, Size: 1})
	}
	bids := b.TopBids(10)
	want := []float64{100, 99, 98}
	for i, lvl := range bids {
		if lvl.Price != want[i] {
			t.Errorf("TopBids[%d] = %v, want %v (descending order)", i, lvl.Price, want[i])
		}
	}
}
