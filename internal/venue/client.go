// client.go implements the REST transport to the venue's /exchange and
// /info endpoints. It never signs anything itself; every mutating call
// builds an unsigned action, hands it to a Signer, and POSTs whatever
// envelope comes back.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/latentspeed/hl-connector/internal/metrics"
	"github.com/latentspeed/hl-connector/pkg/types"
)

// Client is the low-level REST binding to a Hyperliquid-shaped venue.
type Client struct {
	http      *resty.Client
	rl        *RateLimiter
	signer    Signer
	isMainnet bool
	log       *slog.Logger

	metrics *metrics.Registry
}

// SetMetrics attaches a metrics registry; REST call latency is observed
// against it from that point on. Passing nil disables observation.
func (c *Client) SetMetrics(m *metrics.Registry) { c.metrics = m }

func (c *Client) observeLatency(endpoint string, start time.Time) {
	if c.metrics == nil {
		return
	}
	c.metrics.RESTLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

// NewClient builds a REST client against baseURL (the venue API origin,
// e.g. "https://api.hyperliquid.xyz"), signing outbound actions through
// signer.
func NewClient(baseURL string, isMainnet bool, signer Signer, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Client{
		http:      http,
		rl:        NewRateLimiter(),
		signer:    signer,
		isMainnet: isMainnet,
		log:       log,
	}
}

// FetchUniverse retrieves the asset index for every symbol the venue
// trades, via POST /info {type:"meta"}.
func (c *Client) FetchUniverse(ctx context.Context) ([]types.TradingPair, map[types.TradingPair]int, map[types.TradingPair]int, error) {
	if err := c.rl.Info.Wait(ctx); err != nil {
		return nil, nil, nil, err
	}
	defer c.observeLatency("meta", time.Now())

	var out metaResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"type": "meta"}).
		SetResult(&out).
		Post("/info")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fetch universe: %w", err)
	}
	if resp.IsError() {
		return nil, nil, nil, fmt.Errorf("fetch universe: venue returned %s", resp.Status())
	}

	pairs := make([]types.TradingPair, 0, len(out.Universe))
	assetIndex := make(map[types.TradingPair]int, len(out.Universe))
	sizeDecimals := make(map[types.TradingPair]int, len(out.Universe))
	for i, a := range out.Universe {
		pair := types.TradingPair(a.Name + "-USD")
		pairs = append(pairs, pair)
		assetIndex[pair] = i
		sizeDecimals[pair] = a.SzDecimals
	}
	return pairs, assetIndex, sizeDecimals, nil
}

// FetchBookSnapshot retrieves the current L2 order book for coin via
// POST /info {type:"l2Book"}.
func (c *Client) FetchBookSnapshot(ctx context.Context, coin string) (bids, asks []types.PriceLevel, err error) {
	if err := c.rl.Info.Wait(ctx); err != nil {
		return nil, nil, err
	}
	defer c.observeLatency("l2Book", time.Now())

	var out l2BookResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"type": "l2Book", "coin": coin}).
		SetResult(&out).
		Post("/info")
	if err != nil {
		return nil, nil, fmt.Errorf("fetch book %s: %w", coin, err)
	}
	if resp.IsError() {
		return nil, nil, fmt.Errorf("fetch book %s: venue returned %s", coin, resp.Status())
	}
	if len(out.Levels) != 2 {
		return nil, nil, fmt.Errorf("fetch book %s: expected 2 sides, got %d", coin, len(out.Levels))
	}

	bids, err = levelsFromWire(out.Levels[0])
	if err != nil {
		return nil, nil, fmt.Errorf("fetch book %s bids: %w", coin, err)
	}
	asks, err = levelsFromWire(out.Levels[1])
	if err != nil {
		return nil, nil, fmt.Errorf("fetch book %s asks: %w", coin, err)
	}
	return bids, asks, nil
}

func levelsFromWire(raw []l2Level) ([]types.PriceLevel, error) {
	out := make([]types.PriceLevel, 0, len(raw))
	for _, lvl := range raw {
		px, err := strconv.ParseFloat(lvl.Px, 64)
		if err != nil {
			return nil, fmt.Errorf("parse price %q: %w", lvl.Px, err)
		}
		sz, err := strconv.ParseFloat(lvl.Sz, 64)
		if err != nil {
			return nil, fmt.Errorf("parse size %q: %w", lvl.Sz, err)
		}
		out = append(out, types.PriceLevel{Price: px, Size: sz})
	}
	return out, nil
}

// OrderRequest is one order to submit, already quantized to the trading
// rule's tick and step.
type OrderRequest struct {
	AssetIndex int
	IsBuy      bool
	Price      string
	Size       string
	ReduceOnly bool
	PostOnly   bool
	TIF        OrderTIF // zero value defaults to TIFGtc; set explicitly for Ioc/Alo
	Cloid      string
}

// OrderResult is the per-order outcome of a PlaceOrders call.
type OrderResult struct {
	ExchangeOrderID int64
	Resting         bool
	FilledImmediately bool
	Err             string
}

// PlaceOrders submits a batch of orders in a single /exchange action.
func (c *Client) PlaceOrders(ctx context.Context, orders []OrderRequest) ([]OrderResult, error) {
	if err := c.rl.Exchange.Wait(ctx); err != nil {
		return nil, err
	}

	items := make([]orderActionItem, 0, len(orders))
	for _, o := range orders {
		tif := o.TIF
		if tif == "" {
			tif = TIFGtc
		}
		if o.PostOnly {
			tif = TIFAlo
		}
		items = append(items, orderActionItem{
			Asset:      o.AssetIndex,
			IsBuy:      o.IsBuy,
			Price:      o.Price,
			Size:       o.Size,
			ReduceOnly: o.ReduceOnly,
			Type:       orderTypeWire{Limit: &limitOrderWire{TIF: tif}},
			Cloid:      o.Cloid,
		})
	}
	action := orderAction{Type: "order", Grouping: "na", Orders: items}

	out, err := c.postAction(ctx, action)
	if err != nil {
		return nil, err
	}

	results := make([]OrderResult, len(out.Statuses))
	for i, s := range out.Statuses {
		switch {
		case s.Resting != nil:
			results[i] = OrderResult{ExchangeOrderID: s.Resting.OID, Resting: true}
		case s.Filled != nil:
			results[i] = OrderResult{ExchangeOrderID: s.Filled.OID, FilledImmediately: true}
		default:
			results[i] = OrderResult{Err: s.Error}
		}
	}
	return results, nil
}

// CancelRequest identifies one resting order to cancel.
type CancelRequest struct {
	AssetIndex      int
	ExchangeOrderID int64
}

// CancelOrders submits a batch cancel in a single /exchange action.
func (c *Client) CancelOrders(ctx context.Context, cancels []CancelRequest) ([]OrderResult, error) {
	if err := c.rl.Exchange.Wait(ctx); err != nil {
		return nil, err
	}

	items := make([]cancelActionItem, 0, len(cancels))
	for _, r := range cancels {
		items = append(items, cancelActionItem{Asset: r.AssetIndex, ExchangeOrderID: r.ExchangeOrderID})
	}
	action := cancelAction{Type: "cancel", Cancels: items}

	out, err := c.postAction(ctx, action)
	if err != nil {
		return nil, err
	}

	results := make([]OrderResult, len(out.Statuses))
	for i, s := range out.Statuses {
		if s.Error != "" {
			results[i] = OrderResult{Err: s.Error}
		}
	}
	return results, nil
}

type postedAction struct {
	Statuses []orderStatus
}

// postAction signs an unsigned action and POSTs it to /exchange, returning
// the per-item status array and surfacing a top-level "err" status as an
// error.
func (c *Client) postAction(ctx context.Context, action any) (*postedAction, error) {
	defer c.observeLatency("exchange", time.Now())

	raw, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("marshal action: %w", err)
	}

	envelope, err := c.signer.SignL1Action(ctx, raw, c.isMainnet)
	if err != nil {
		return nil, fmt.Errorf("sign action: %w", err)
	}

	var out exchangeResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(json.RawMessage(envelope)).
		SetResult(&out).
		Post("/exchange")
	if err != nil {
		return nil, fmt.Errorf("post action: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("post action: venue returned %s", resp.Status())
	}
	if out.Status == "err" {
		return nil, fmt.Errorf("venue rejected action: %s", resp.String())
	}

	c.log.Debug("posted action", "endpoint", "/exchange", "statuses", len(out.Response.Data.Statuses))
	return &postedAction{Statuses: out.Response.Data.Statuses}, nil
}
