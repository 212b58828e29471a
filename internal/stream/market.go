package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"

	"github.com/latentspeed/hl-connector/internal/book"
	"github.com/latentspeed/hl-connector/internal/wire"
	"github.com/latentspeed/hl-connector/pkg/types"
)

// MarketSession is the venue's public order-book feed: one l2Book
// subscription per trading pair, each maintained as a local book.Book.
// Every l2Book frame is applied as a full snapshot that replaces the
// book; differential (delta) frames are not decoded.
type MarketSession struct {
	*session

	mu         sync.RWMutex
	books      map[types.TradingPair]*book.Book
	subscribed map[types.TradingPair]bool

	onUpdate func(types.TradingPair)
}

// NewMarketSession builds a market-data session against wsURL (the
// venue's /ws endpoint). onUpdate, if non-nil, is invoked after every
// applied book update.
func NewMarketSession(wsURL string, log *slog.Logger, onUpdate func(types.TradingPair)) *MarketSession {
	if log == nil {
		log = slog.Default()
	}
	m := &MarketSession{
		books:      make(map[types.TradingPair]*book.Book),
		subscribed: make(map[types.TradingPair]bool),
		onUpdate:   onUpdate,
	}
	m.session = newSession("market", wsURL, log, m.dispatch, m.resubscribeAll)
	return m
}

// Start begins connecting and streaming in the background.
func (m *MarketSession) Start(ctx context.Context) { m.session.Start(ctx) }

// Stop tears the session down.
func (m *MarketSession) Stop() { m.session.Stop() }

// Subscribe registers interest in pair's order book. Idempotent: calling
// it again for an already-subscribed pair is a no-op beyond ensuring the
// book exists.
func (m *MarketSession) Subscribe(pair types.TradingPair) error {
	m.mu.Lock()
	already := m.subscribed[pair]
	if _, ok := m.books[pair]; !ok {
		m.books[pair] = book.New(pair)
	}
	m.subscribed[pair] = true
	m.mu.Unlock()

	if already {
		return nil
	}
	// With no socket up yet the pair is only recorded; resubscribeAll
	// sends the frame once the session connects.
	m.session.mu.RLock()
	up := m.session.conn != nil
	m.session.mu.RUnlock()
	if !up {
		return nil
	}
	return m.sendSubscribe(pair, "subscribe")
}

// Unsubscribe withdraws interest in pair's order book. Idempotent.
func (m *MarketSession) Unsubscribe(pair types.TradingPair) error {
	m.mu.Lock()
	if !m.subscribed[pair] {
		m.mu.Unlock()
		return nil
	}
	delete(m.subscribed, pair)
	delete(m.books, pair)
	m.mu.Unlock()

	return m.sendSubscribe(pair, "unsubscribe")
}

func (m *MarketSession) sendSubscribe(pair types.TradingPair, method string) error {
	coin := wire.ToVenueCoin(string(pair))
	return m.session.send(subscribeMsg{Method: method, Subscription: subscriptionTag{Type: "l2Book", Coin: coin}})
}

// resubscribeAll replays every currently tracked subscription after a
// reconnect.
func (m *MarketSession) resubscribeAll(_ *session) error {
	m.mu.RLock()
	pairs := make([]types.TradingPair, 0, len(m.subscribed))
	for p := range m.subscribed {
		pairs = append(pairs, p)
	}
	m.mu.RUnlock()

	for _, p := range pairs {
		if err := m.sendSubscribe(p, "subscribe"); err != nil {
			return err
		}
	}
	return nil
}

// Book returns the live order book for pair, if subscribed.
func (m *MarketSession) Book(pair types.TradingPair) (*book.Book, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.books[pair]
	return b, ok
}

func (m *MarketSession) dispatch(raw []byte) {
	var env channelEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		m.log.Warn("market frame: bad envelope", "error", err)
		return
	}
	if env.Channel != "l2Book" {
		return
	}

	var frame l2BookFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		m.log.Warn("market frame: bad l2Book payload", "error", err)
		return
	}

	pair := fromVenueCoin(frame.Data.Coin)
	m.mu.RLock()
	b, ok := m.books[pair]
	m.mu.RUnlock()
	if !ok {
		return
	}

	bids, err := parseLevels(frame.Data.Levels[0])
	if err != nil {
		m.log.Warn("market frame: bad bid levels", "error", err)
		return
	}
	asks, err := parseLevels(frame.Data.Levels[1])
	if err != nil {
		m.log.Warn("market frame: bad ask levels", "error", err)
		return
	}
	b.ApplySnapshot(bids, asks)

	if m.onUpdate != nil {
		m.onUpdate(pair)
	}
}

func parseLevels(raw []wireLevel) ([]types.PriceLevel, error) {
	out := make([]types.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		px, err := strconv.ParseFloat(lvl.Px, 64)
		if err != nil {
			return nil, err
		}
		sz, err := strconv.ParseFloat(lvl.Sz, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, types.PriceLevel{Price: px, Size: sz})
	}
	return out, nil
}

// fromVenueCoin reverses wire.ToVenueCoin for the perpetual-only universe
// this connector trades: a bare coin symbol maps to its "<COIN>-USD"
// trading pair.
func fromVenueCoin(coin string) types.TradingPair {
	return types.TradingPair(coin + "-USD")
}
