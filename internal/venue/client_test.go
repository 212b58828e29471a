package venue

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/latentspeed/hl-connector/internal/metrics"
)

type fakeSigner struct{}

func (fakeSigner) SignL1Action(_ context.Context, actionJSON []byte, _ bool) ([]byte, error) {
	// A real signer wraps the action in a signature envelope; the fake
	// passes the action through untouched plus a nonce field the venue
	// requires but this client doesn't interpret.
	var raw map[string]any
	if err := json.Unmarshal(actionJSON, &raw); err != nil {
		return nil, err
	}
	envelope := map[string]any{"action": raw, "nonce": 1, "signature": "stub"}
	return json.Marshal(envelope)
}

func TestFetchUniverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":5},{"name":"ETH","szDecimals":4}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	pairs, assetIndex, sizeDecimals, err := c.FetchUniverse(context.Background())
	if err != nil {
		t.Fatalf("FetchUniverse: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("pairs = %v, want 2 entries", pairs)
	}
	if assetIndex["BTC-USD"] != 0 || assetIndex["ETH-USD"] != 1 {
		t.Errorf("assetIndex = %v", assetIndex)
	}
	if sizeDecimals["BTC-USD"] != 5 {
		t.Errorf("sizeDecimals[BTC-USD] = %d, want 5", sizeDecimals["BTC-USD"])
	}
}

func TestFetchBookSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"coin":"BTC","time":1,"levels":[[{"px":"50000","sz":"1.5"}],[{"px":"50010","sz":"2"}]]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	bids, asks, err := c.FetchBookSnapshot(context.Background(), "BTC")
	if err != nil {
		t.Fatalf("FetchBookSnapshot: %v", err)
	}
	if len(bids) != 1 || bids[0].Price != 50000 || bids[0].Size != 1.5 {
		t.Errorf("bids = %v", bids)
	}
	if len(asks) != 1 || asks[0].Price != 50010 {
		t.Errorf("asks = %v", asks)
	}
}

func TestPlaceOrdersResting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","response":{"data":{"statuses":[{"resting":{"oid":12345}}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	results, err := c.PlaceOrders(context.Background(), []OrderRequest{
		{AssetIndex: 0, IsBuy: true, Price: "50000", Size: "0.1", Cloid: "0x" + "0123456789abcdef0123456789abcdef"},
	})
	if err != nil {
		t.Fatalf("PlaceOrders: %v", err)
	}
	if len(results) != 1 || !results[0].Resting || results[0].ExchangeOrderID != 12345 {
		t.Errorf("results = %+v", results)
	}
}

func TestPlaceOrdersCarriesIOCTimeInForceOnWire(t *testing.T) {
	var captured orderAction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var envelope struct {
			Action orderAction `json:"action"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &envelope); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		captured = envelope.Action
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","response":{"data":{"statuses":[{"filled":{"oid":1}}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	_, err := c.PlaceOrders(context.Background(), []OrderRequest{
		{AssetIndex: 0, IsBuy: true, Price: "1000000", Size: "0.1", TIF: TIFIoc},
	})
	if err != nil {
		t.Fatalf("PlaceOrders: %v", err)
	}
	if len(captured.Orders) != 1 || captured.Orders[0].Type.Limit == nil || captured.Orders[0].Type.Limit.TIF != TIFIoc {
		t.Errorf("wire order = %+v, want tif Ioc", captured.Orders)
	}
}

func TestPlaceOrdersRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","response":{"data":{"statuses":[{"error":"Order has invalid size"}]}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	results, err := c.PlaceOrders(context.Background(), []OrderRequest{
		{AssetIndex: 0, IsBuy: true, Price: "50000", Size: "0.1"},
	})
	if err != nil {
		t.Fatalf("PlaceOrders: %v", err)
	}
	if len(results) != 1 || results[0].Err == "" {
		t.Errorf("results = %+v, want a populated Err", results)
	}
}

func TestFetchUniverseObservesLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"universe":[{"name":"BTC","szDecimals":3}]}`))
	}))
	defer srv.Close()

	reg := metrics.NewRegistry("test")
	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	c.SetMetrics(reg)

	if _, _, _, err := c.FetchUniverse(context.Background()); err != nil {
		t.Fatalf("FetchUniverse: %v", err)
	}
	if count := testutil.CollectAndCount(reg.RESTLatency); count != 1 {
		t.Errorf("RESTLatency collected %d series, want 1", count)
	}
}

func TestPostActionHardRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"err","response":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, false, fakeSigner{}, nil)
	_, err := c.CancelOrders(context.Background(), []CancelRequest{{AssetIndex: 0, ExchangeOrderID: 1}})
	if err == nil {
		t.Fatal("expected error on top-level status=err")
	}
}
