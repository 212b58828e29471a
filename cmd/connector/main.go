// hl-connector is a low-latency perpetual-futures connector for a
// Hyperliquid-shaped venue.
//
// Architecture:
//
//	cmd/connector/main.go    — entry point: loads config, starts the connector, waits for SIGINT/SIGTERM
//	internal/connector       — orchestrator: wires the REST client, sessions, tracker, and dispatcher
//	internal/venue           — REST transport, rate limiting, cloid derivation, the Signer boundary
//	internal/stream          — reconnecting WebSocket sessions for market data and the user feed
//	internal/tracker         — concurrent in-flight order state machine
//	internal/rules           — trading-rule cache and tick/step quantization
//	internal/reason          — venue rejection text to canonical reason-code mapping
//	internal/events          — order/trade/balance/position event dispatch
//	internal/book            — local order book mirror
//	internal/wire            — price/size string formatting for the wire
//	internal/metrics         — Prometheus counters, gauges, and histograms
//	internal/config          — YAML + environment variable configuration loading
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/latentspeed/hl-connector/internal/config"
	"github.com/latentspeed/hl-connector/internal/connector"
	"github.com/latentspeed/hl-connector/internal/metrics"
	"github.com/latentspeed/hl-connector/internal/venue"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("HLCONNECTOR_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	signer := venue.NewRemoteSigner(cfg.Signer.Endpoint)
	conn := connector.New("hlc", cfg, signer, logger)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry(cfg.Metrics.Namespace)
		reg.MustRegister(prometheus.DefaultRegisterer)
		conn.SetMetrics(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer = &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		logger.Info("metrics endpoint started", "addr", cfg.Metrics.Addr)
	}

	ctx := context.Background()
	if err := conn.Start(ctx); err != nil {
		logger.Error("failed to start connector", "error", err)
		os.Exit(1)
	}

	logger.Info("hl-connector started",
		"domain", conn.Domain(),
		"trading_pairs", cfg.Connector.TradingPairs,
		"mainnet", cfg.Venue.IsMainnet,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	if metricsServer != nil {
		if err := metricsServer.Shutdown(context.Background()); err != nil {
			logger.Error("failed to stop metrics server", "error", err)
		}
	}

	conn.Stop()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
