// Package book implements an in-memory sorted bid/ask ladder for a single
// trading pair: a full-snapshot replace and an incremental delta-apply
// where a zero size means delete the level.
package book

import (
	"sort"
	"sync"
	"time"

	"github.com/latentspeed/hl-connector/pkg/types"
)

// Book is the local mirror of one pair's order book. Each side is stored
// as an unordered price -> size map; TopBids returns bids sorted
// descending and TopAsks returns asks sorted ascending, so index 0 of
// either result is top-of-book. Safe for concurrent use.
type Book struct {
	mu          sync.RWMutex
	pair        types.TradingPair
	bids        map[float64]float64 // price -> size
	asks        map[float64]float64
	sequence    uint64
	lastUpdated time.Time
}

// New returns an empty book for pair.
func New(pair types.TradingPair) *Book {
	return &Book{
		pair: pair,
		bids: make(map[float64]float64),
		asks: make(map[float64]float64),
	}
}

// ApplySnapshot replaces the entire book with the given levels. Zero-size
// levels in the input are simply omitted, never stored.
func (b *Book) ApplySnapshot(bids, asks []types.PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = make(map[float64]float64, len(bids))
	b.asks = make(map[float64]float64, len(asks))
	for _, lvl := range bids {
		if lvl.Size > 0 {
			b.bids[lvl.Price] = lvl.Size
		}
	}
	for _, lvl := range asks {
		if lvl.Size > 0 {
			b.asks[lvl.Price] = lvl.Size
		}
	}
	b.sequence++
	b.lastUpdated = now()
}

// ApplyDelta mutates the book in place: a size of 0 deletes the level, a
// positive size inserts or replaces it.
func (b *Book) ApplyDelta(side types.TradeType, level types.PriceLevel) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ladder := b.bids
	if side == types.Sell {
		ladder = b.asks
	}
	if level.Size <= 0 {
		delete(ladder, level.Price)
	} else {
		ladder[level.Price] = level.Size
	}
	b.sequence++
	b.lastUpdated = now()
}

// BestBid returns the highest bid price and its size.
func (b *Book) BestBid() (price, size float64, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return bestOf(b.bids, true)
}

// BestAsk returns the lowest ask price and its size.
func (b *Book) BestAsk() (price, size float64, ok bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return bestOf(b.asks, false)
}

func bestOf(ladder map[float64]float64, wantMax bool) (price, size float64, ok bool) {
	first := true
	for p, s := range ladder {
		if first || (wantMax && p > price) || (!wantMax && p < price) {
			price, size, ok, first = p, s, true, false
		}
	}
	return price, size, ok
}

// MidPrice returns (bestBid+bestAsk)/2, or ok=false if either side is empty.
func (b *Book) MidPrice() (mid float64, ok bool) {
	bidPx, _, bidOK := b.BestBid()
	askPx, _, askOK := b.BestAsk()
	if !bidOK || !askOK {
		return 0, false
	}
	return (bidPx + askPx) / 2, true
}

// IsValid reports that the book has no crossed market: best_bid < best_ask
// whenever both sides are populated. An empty side is trivially valid.
func (b *Book) IsValid() bool {
	bidPx, _, bidOK := b.BestBid()
	askPx, _, askOK := b.BestAsk()
	if !bidOK || !askOK {
		return true
	}
	return bidPx < askPx
}

// TopBids returns up to n bid levels sorted best-first (descending price).
func (b *Book) TopBids(n int) []types.PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return topLevels(b.bids, n, true)
}

// TopAsks returns up to n ask levels sorted best-first (ascending price).
func (b *Book) TopAsks(n int) []types.PriceLevel {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return topLevels(b.asks, n, false)
}

func topLevels(ladder map[float64]float64, n int, descending bool) []types.PriceLevel {
	levels := make([]types.PriceLevel, 0, len(ladder))
	for p, s := range ladder {
		levels = append(levels, types.PriceLevel{Price: p, Size: s})
	}
	sort.Slice(levels, func(i, j int) bool {
		if descending {
			return levels[i].Price > levels[j].Price
		}
		return levels[i].Price < levels[j].Price
	})
	if n >= 0 && n < len(levels) {
		levels = levels[:n]
	}
	return levels
}

// Sequence returns the monotonically advancing mutation counter.
func (b *Book) Sequence() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sequence
}

// LastUpdated returns the timestamp of the most recent snapshot or delta.
func (b *Book) LastUpdated() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastUpdated
}

// IsStale reports whether the book has not been updated within window.
func (b *Book) IsStale(window time.Duration) bool {
	last := b.LastUpdated()
	if last.IsZero() {
		return true
	}
	return now().Sub(last) > window
}

// Clear empties both sides of the book.
func (b *Book) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bids = make(map[float64]float64)
	b.asks = make(map[float64]float64)
}

// now is a var so tests can stub the clock if ever needed.
var now = time.Now
