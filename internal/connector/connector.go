// Package connector implements the perpetual connector orchestrator: it
// composes the trading-rule cache, in-flight tracker, REST venue client,
// market-data and user-stream sessions, and event dispatcher into the
// single object a strategy talks to.
package connector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/latentspeed/hl-connector/internal/config"
	"github.com/latentspeed/hl-connector/internal/events"
	"github.com/latentspeed/hl-connector/internal/metrics"
	"github.com/latentspeed/hl-connector/internal/reason"
	"github.com/latentspeed/hl-connector/internal/rules"
	"github.com/latentspeed/hl-connector/internal/stream"
	"github.com/latentspeed/hl-connector/internal/tracker"
	"github.com/latentspeed/hl-connector/internal/venue"
	"github.com/latentspeed/hl-connector/internal/wire"
	"github.com/latentspeed/hl-connector/pkg/types"
)

// DefaultCancelBackfillTimeout is how long Cancel waits for a resting
// order's exchange_order_id to be bound before failing with a timeout.
// Overridable via config.ConnectorConfig.CancelBackfillTimeout.
const DefaultCancelBackfillTimeout = 2 * time.Second

// DefaultCancelBackfillPoll is the polling interval used while waiting for
// exchange_order_id backfill.
const DefaultCancelBackfillPoll = 100 * time.Millisecond

// perpMaxDecimals is Hyperliquid's total decimal budget for perpetual
// price strings; a pair's usable price decimals is this minus its size
// decimals.
const perpMaxDecimals = 6

// marketOrderPriceCeiling is the sentinel "near-infinite" buy-side IOC
// limit price used when no tighter venue bound is known for a pair.
const marketOrderPriceCeiling = 1e9

// Connector composes every subsystem into the strategy-facing API.
type Connector struct {
	name      string
	isMainnet bool
	cfg       *config.Config
	log       *slog.Logger

	client *venue.Client
	rules  *rules.Cache
	trk    *tracker.Tracker
	disp   *events.Dispatcher
	market *stream.MarketSession
	user   *stream.UserSession

	counter uint64

	mu           sync.RWMutex
	positions    map[types.TradingPair]types.Position
	fundingRates map[types.TradingPair]float64
	markPrices   map[types.TradingPair]float64
	indexPrices  map[types.TradingPair]float64
	positionMode types.PositionMode

	metrics *metrics.Registry

	externalOrder    events.OrderListener
	externalBalance  events.BalanceListener
	externalPosition events.PositionListener

	connected atomic.Bool
	ready     atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a connector from configuration and an externally supplied
// signer; it performs no I/O until Start is called.
func New(name string, cfg *config.Config, signer venue.Signer, log *slog.Logger) *Connector {
	if log == nil {
		log = slog.Default()
	}
	c := &Connector{
		name:         name,
		isMainnet:    cfg.Venue.IsMainnet,
		cfg:          cfg,
		log:          log,
		client:       venue.NewClient(cfg.Venue.RESTBaseURL, cfg.Venue.IsMainnet, signer, log.With("component", "venue")),
		rules:        rules.NewCache(),
		trk:          tracker.New(),
		disp:         events.NewDispatcher(),
		positions:    make(map[types.TradingPair]types.Position),
		fundingRates: make(map[types.TradingPair]float64),
		markPrices:   make(map[types.TradingPair]float64),
		indexPrices:  make(map[types.TradingPair]float64),
		positionMode: types.PositionModeOneWay,
	}
	c.market = stream.NewMarketSession(cfg.Venue.WSURL, log.With("component", "market"), c.onBookUpdate)
	c.user = stream.NewUserSession(cfg.Venue.WSURL, cfg.Venue.UserAddress, log.With("component", "user"), c.trk, c.disp)

	c.disp.SetBalanceListener(balanceAdapter{c})
	c.disp.SetPositionListener(positionAdapter{c})
	return c
}

// SetMetrics attaches a metrics registry and propagates it to every
// subsystem that publishes a metric: the REST client and both stream
// sessions. Passing nil disables observation everywhere.
func (c *Connector) SetMetrics(m *metrics.Registry) {
	c.metrics = m
	c.client.SetMetrics(m)
	c.market.SetMetrics(m)
	c.user.SetMetrics(m)
}

// Name is the connector's short identity.
func (c *Connector) Name() string { return c.name }

// Domain is the connector's identity including network: name on mainnet,
// name+"_testnet" otherwise.
func (c *Connector) Domain() string {
	if c.isMainnet {
		return c.name
	}
	return c.name + "_testnet"
}

// Initialize loads the venue's asset universe and derives a trading rule
// per configured pair. Must complete successfully before Start accepts
// order flow.
func (c *Connector) Initialize(ctx context.Context) error {
	pairs, assetIndex, sizeDecimals, err := c.client.FetchUniverse(ctx)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	universe := make(map[types.TradingPair]bool, len(pairs))
	for _, p := range pairs {
		universe[p] = true
	}

	for _, want := range c.cfg.Connector.TradingPairs {
		pair := types.TradingPair(want)
		if !universe[pair] {
			c.log.Warn("trading pair not found in venue universe", "pair", pair)
			continue
		}
		szDec := sizeDecimals[pair]
		priceDec := perpMaxDecimals - szDec
		if priceDec < 0 {
			priceDec = 0
		}
		step := math.Pow(10, float64(-szDec))
		rule := types.TradingRule{
			TradingPair:      pair,
			MinPrice:         math.Pow(10, float64(-priceDec)),
			MaxPrice:         marketOrderPriceCeiling,
			TickSize:         0, // this venue prices by significant digits, not a literal tick
			PriceDecimals:    priceDec,
			MinOrderSize:     step,
			MaxOrderSize:     0,
			MinNotional:      0,
			StepSize:         step,
			SizeDecimals:     szDec,
			SupportsPostOnly: true,
			SupportsMarket:   true,
		}
		c.rules.Set(pair, rule, assetIndex[pair])
	}

	c.ready.Store(true)
	return nil
}

// Start initializes the connector, subscribes configured pairs, and
// starts the market and user sessions in the background.
func (c *Connector) Start(ctx context.Context) error {
	if err := c.Initialize(ctx); err != nil {
		return err
	}

	c.ctx, c.cancel = context.WithCancel(ctx)

	for _, want := range c.cfg.Connector.TradingPairs {
		pair := types.TradingPair(want)
		if _, ok := c.rules.Rule(pair); !ok {
			continue
		}
		if err := c.market.Subscribe(pair); err != nil {
			c.log.Warn("subscribe market data failed", "pair", pair, "error", err)
		}
	}

	c.market.Start(c.ctx)
	c.user.Start(c.ctx)
	c.connected.Store(true)
	return nil
}

// Stop tears down both sessions and waits for them to exit. It performs an
// orderly shutdown only: it does not cancel resting orders, since this
// connector never retries or acts on a strategy's behalf (see Non-goals).
func (c *Connector) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.market.Stop()
	c.user.Stop()
	c.connected.Store(false)
}

// IsConnected reports whether the sessions have been started.
func (c *Connector) IsConnected() bool { return c.connected.Load() }

// IsReady reports whether trading rules have been loaded.
func (c *Connector) IsReady() bool { return c.ready.Load() }

// SetOrderListener registers the order-lifecycle listener.
func (c *Connector) SetOrderListener(l events.OrderListener) {
	c.externalOrder = l
	c.disp.SetOrderListener(l)
}

// SetTradeListener registers the trade listener.
func (c *Connector) SetTradeListener(l events.TradeListener) { c.disp.SetTradeListener(l) }

// SetErrorListener registers the error listener.
func (c *Connector) SetErrorListener(l events.ErrorListener) { c.disp.SetErrorListener(l) }

// SetBalanceListener registers an external balance listener; the
// connector's own cache is updated regardless.
func (c *Connector) SetBalanceListener(l events.BalanceListener) { c.externalBalance = l }

// SetPositionListener registers an external position listener; the
// connector's own cache is updated regardless.
func (c *Connector) SetPositionListener(l events.PositionListener) { c.externalPosition = l }

func (c *Connector) nextClientOrderID() string {
	n := atomic.AddUint64(&c.counter, 1)
	return fmt.Sprintf("%s-%d-%d", c.cfg.Connector.ClientOrderIDPrefix, time.Now().UnixMilli(), n)
}

// Buy submits a buy order and returns its client_order_id immediately;
// the network round-trip happens asynchronously.
func (c *Connector) Buy(params types.OrderParams) (string, error) {
	return c.place(types.Buy, params)
}

// Sell submits a sell order and returns its client_order_id immediately.
func (c *Connector) Sell(params types.OrderParams) (string, error) {
	return c.place(types.Sell, params)
}

func (c *Connector) place(side types.TradeType, params types.OrderParams) (string, error) {
	cid := c.nextClientOrderID()
	cloid := params.ExtraParams["cloid"]
	var cloidErr error
	if cloid == "" {
		cloid = venue.GenerateCloid(cid)
	} else if err := venue.ValidateCloid(cloid); err != nil {
		// Don't let a malformed caller-supplied cloid into the tracker's
		// byCloid index or onto the wire; track under a freshly derived one
		// instead and fail the order once it's tracked.
		cloidErr = err
		cloid = venue.GenerateCloid(cid)
	}

	rule, hasRule := c.rules.Rule(params.TradingPair)

	price := params.Price
	amount := c.rules.QuantizeSize(params.TradingPair, params.Amount)
	if params.OrderType != types.OrderTypeMarket {
		price = c.rules.QuantizePrice(params.TradingPair, price)
	}

	order := types.InFlightOrder{
		ClientOrderID:  cid,
		TradingPair:    params.TradingPair,
		OrderType:      params.OrderType,
		TradeType:      side,
		PositionAction: params.PositionAction,
		Price:          price,
		Amount:         amount,
		Cloid:          cloid,
	}

	if err := c.trk.StartTracking(order); err != nil {
		if err != tracker.ErrCloidCollision {
			return "", fmt.Errorf("place order: %w", err)
		}
		// The deterministic hash collided with an already-tracked cloid.
		// Break the tie by salting the input with a random suffix before
		// re-deriving, rather than surfacing a collision the caller has
		// no way to act on.
		order.Cloid = venue.GenerateCloid(cid + "-" + uuid.NewString())
		cloid = order.Cloid
		if err := c.trk.StartTracking(order); err != nil {
			return "", fmt.Errorf("place order: %w", err)
		}
	}

	if cloidErr != nil {
		c.failOrder(cid, cloidErr.Error())
		return cid, nil
	}

	if err := validateParams(params, rule, hasRule); err != nil {
		c.failOrder(cid, err.Error())
		return cid, nil
	}

	go c.submit(side, params, cid, cloid, price, amount, rule)
	return cid, nil
}

func validateParams(params types.OrderParams, rule types.TradingRule, hasRule bool) error {
	if params.TradingPair == "" {
		return fmt.Errorf("trading_pair is required")
	}
	if params.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if params.OrderType == types.OrderTypeLimit || params.OrderType == types.OrderTypeLimitMaker {
		if params.Price <= 0 {
			return fmt.Errorf("price must be positive for a limit order")
		}
	}
	if !hasRule {
		return fmt.Errorf("no trading rule loaded for %s", params.TradingPair)
	}
	if params.OrderType == types.OrderTypeMarket && !rule.SupportsMarket {
		return fmt.Errorf("%s does not support market orders", params.TradingPair)
	}
	if params.OrderType == types.OrderTypeLimitMaker && !rule.SupportsPostOnly {
		return fmt.Errorf("%s does not support post-only orders", params.TradingPair)
	}
	return nil
}

func (c *Connector) submit(side types.TradeType, params types.OrderParams, cid, cloid string, price, amount float64, rule types.TradingRule) {
	assetIndex, ok := c.rules.AssetIndex(params.TradingPair)
	if !ok {
		c.failOrder(cid, "no asset index for trading pair")
		return
	}

	tif := venue.TIFGtc
	if params.OrderType == types.OrderTypeMarket {
		tif = venue.TIFIoc
		price = marketExtremePrice(side, rule)
	} else if params.OrderType == types.OrderTypeLimitMaker {
		tif = venue.TIFAlo
	}

	priceStr := wire.FormatSignificant(price, wire.DefaultSignificantDigits, int32(rule.PriceDecimals))
	sizeStr := wire.FormatDecimal(amount, int32(rule.SizeDecimals))

	req := venue.OrderRequest{
		AssetIndex: assetIndex,
		IsBuy:      side == types.Buy,
		Price:      priceStr,
		Size:       sizeStr,
		ReduceOnly: params.PositionAction == types.PositionClose,
		PostOnly:   tif == venue.TIFAlo,
		TIF:        tif,
		Cloid:      cloid,
	}

	results, err := c.client.PlaceOrders(c.ctx, []venue.OrderRequest{req})
	if err != nil {
		c.failOrder(cid, string(reason.NetworkError))
		return
	}
	if len(results) == 0 {
		c.failOrder(cid, "venue returned no status for submitted order")
		return
	}

	res := results[0]
	if res.Err != "" {
		mapped := reason.Map(res.Err)
		c.failOrder(cid, mapped.Text)
		return
	}

	exchangeOrderID := fmt.Sprintf("%d", res.ExchangeOrderID)
	if err := c.trk.ProcessOrderUpdate(types.OrderUpdate{
		ClientOrderID:   cid,
		ExchangeOrderID: exchangeOrderID,
		TradingPair:     params.TradingPair,
		NewState:        types.Open,
		UpdateTimestamp: time.Now(),
	}); err != nil {
		c.log.Warn("submit: process order update", "cid", cid, "error", err)
		return
	}
	c.observeTransition(types.Open)
	c.disp.EmitOrderCreated(cid, exchangeOrderID)
}

func (c *Connector) failOrder(cid, reasonText string) {
	_ = c.trk.ProcessOrderUpdate(types.OrderUpdate{
		ClientOrderID:   cid,
		NewState:        types.Failed,
		UpdateTimestamp: time.Now(),
		Reason:          reasonText,
	})
	c.observeTransition(types.Failed)
	if c.metrics != nil {
		c.metrics.OrderSubmitErrors.WithLabelValues(reasonText).Inc()
	}
	c.disp.EmitOrderFailed(cid, reasonText)
}

// observeTransition records a resulting order state against the state-
// transition counter and refreshes the open-orders gauge. A no-op when no
// registry is attached.
func (c *Connector) observeTransition(state types.OrderState) {
	if c.metrics == nil {
		return
	}
	c.metrics.OrderStateTransitions.WithLabelValues(string(state)).Inc()
	c.metrics.OpenOrders.Set(float64(len(c.trk.AllFillableOrders())))
}

// marketExtremePrice derives the IOC limit price that guarantees immediate
// matching for a market order: the pair's rule-bound ceiling for a buy, and
// its smallest representable price for a sell.
func marketExtremePrice(side types.TradeType, rule types.TradingRule) float64 {
	if side == types.Buy {
		if rule.MaxPrice > 0 {
			return rule.MaxPrice
		}
		return marketOrderPriceCeiling
	}
	if rule.MinPrice > 0 {
		return rule.MinPrice
	}
	return math.Pow(10, float64(-rule.PriceDecimals))
}

// Cancel looks up the order by client_order_id, waits up to the configured
// backfill interval for its exchange_order_id to be bound, then submits a
// cancel action. It returns a timeout error if exchange_order_id never
// arrives, and never regresses tracker state on a failed cancel POST.
func (c *Connector) Cancel(ctx context.Context, clientOrderID string) error {
	timeout := c.cfg.Connector.CancelBackfillTimeout
	if timeout <= 0 {
		timeout = DefaultCancelBackfillTimeout
	}
	poll := c.cfg.Connector.CancelBackfillPoll
	if poll <= 0 {
		poll = DefaultCancelBackfillPoll
	}

	order, ok := c.trk.GetOrder(clientOrderID)
	if !ok {
		return tracker.ErrNotFound
	}

	deadline := time.Now().Add(timeout)
	for order.ExchangeOrderID == "" {
		if time.Now().After(deadline) {
			return fmt.Errorf("cancel %s: timed out waiting for exchange_order_id", clientOrderID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(poll):
		}
		order, ok = c.trk.GetOrder(clientOrderID)
		if !ok {
			return tracker.ErrNotFound
		}
	}

	assetIndex, ok := c.rules.AssetIndex(order.TradingPair)
	if !ok {
		return fmt.Errorf("cancel %s: no asset index for %s", clientOrderID, order.TradingPair)
	}

	var oid int64
	if _, err := fmt.Sscanf(order.ExchangeOrderID, "%d", &oid); err != nil {
		return fmt.Errorf("cancel %s: malformed exchange_order_id %q", clientOrderID, order.ExchangeOrderID)
	}

	results, err := c.client.CancelOrders(ctx, []venue.CancelRequest{{AssetIndex: assetIndex, ExchangeOrderID: oid}})
	if err != nil {
		return fmt.Errorf("cancel %s: %w", clientOrderID, err)
	}
	if len(results) > 0 && results[0].Err != "" {
		return fmt.Errorf("cancel %s: %s", clientOrderID, results[0].Err)
	}

	c.observeTransition(types.PendingCancel)
	return c.trk.ProcessOrderUpdate(types.OrderUpdate{
		ClientOrderID:   clientOrderID,
		TradingPair:     order.TradingPair,
		NewState:        types.PendingCancel,
		UpdateTimestamp: time.Now(),
	})
}

func (c *Connector) onBookUpdate(pair types.TradingPair) {
	b, ok := c.market.Book(pair)
	if !ok {
		return
	}
	mid, ok := b.MidPrice()
	if !ok {
		return
	}
	c.mu.Lock()
	c.markPrices[pair] = mid
	c.mu.Unlock()
}

// GetOrder returns a snapshot of the tracked order, if any.
func (c *Connector) GetOrder(clientOrderID string) (types.InFlightOrder, bool) {
	return c.trk.GetOrder(clientOrderID)
}

// GetPosition returns the cached position for pair, if known.
func (c *Connector) GetPosition(pair types.TradingPair) (types.Position, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.positions[pair]
	return p, ok
}

// GetFundingRate returns the cached funding rate for pair, if known. No
// live feed populates this in the current wiring; it exists as the
// accessor surface the orchestrator's contract specifies.
func (c *Connector) GetFundingRate(pair types.TradingPair) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.fundingRates[pair]
	return r, ok
}

// GetMarkPrice returns the book mid-price cached from the market session.
func (c *Connector) GetMarkPrice(pair types.TradingPair) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.markPrices[pair]
	return p, ok
}

// GetIndexPrice returns the cached index price for pair, if known.
func (c *Connector) GetIndexPrice(pair types.TradingPair) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.indexPrices[pair]
	return p, ok
}

// GetPositionMode returns whether the account is in one-way or hedge mode.
func (c *Connector) GetPositionMode() types.PositionMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.positionMode
}

// balanceAdapter and positionAdapter bridge the dispatcher's single-
// listener-per-channel model to the connector's own cache-then-forward
// behavior for balances and positions.
type balanceAdapter struct{ c *Connector }

func (a balanceAdapter) OnBalanceUpdate(asset string, available, total float64) {
	if a.c.externalBalance != nil {
		a.c.externalBalance.OnBalanceUpdate(asset, available, total)
	}
}

type positionAdapter struct{ c *Connector }

func (a positionAdapter) OnPositionUpdate(pair, side string, size, entryPrice, unrealizedPnL float64) {
	a.c.mu.Lock()
	a.c.positions[types.TradingPair(pair)] = types.Position{
		TradingPair:   types.TradingPair(pair),
		Side:          types.PositionSide(side),
		Size:          size,
		EntryPrice:    entryPrice,
		UnrealizedPnL: unrealizedPnL,
		LastUpdated:   time.Now(),
	}
	a.c.mu.Unlock()

	if a.c.externalPosition != nil {
		a.c.externalPosition.OnPositionUpdate(pair, side, size, entryPrice, unrealizedPnL)
	}
}
