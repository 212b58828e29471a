// Package config loads the connector's runtime configuration from a YAML
// file with environment-variable overrides, following the same
// viper-based layering the rest of this stack uses for its services.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// VenueConfig describes how to reach the trading venue.
type VenueConfig struct {
	RESTBaseURL string `mapstructure:"rest_base_url"`
	WSURL       string `mapstructure:"ws_url"`
	IsMainnet   bool   `mapstructure:"is_mainnet"`
	UserAddress string `mapstructure:"user_address"`
}

// SignerConfig describes how to reach the external signing collaborator.
// This module never holds key material itself; Endpoint is the only
// field needed to dial whatever out-of-process signer implements
// venue.Signer.
type SignerConfig struct {
	Endpoint string `mapstructure:"endpoint"`
}

// ConnectorConfig carries the tunables the orchestrator needs beyond
// venue connectivity.
type ConnectorConfig struct {
	ClientOrderIDPrefix     string        `mapstructure:"client_order_id_prefix"`
	CancelBackfillTimeout   time.Duration `mapstructure:"cancel_backfill_timeout"`
	CancelBackfillPoll      time.Duration `mapstructure:"cancel_backfill_poll"`
	TradingPairs            []string      `mapstructure:"trading_pairs"`
}

// LoggingConfig controls slog's output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" | "text"
}

// MetricsConfig controls the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Addr      string `mapstructure:"addr"`
}

// Config is the connector's full configuration tree.
type Config struct {
	Venue     VenueConfig     `mapstructure:"venue"`
	Signer    SignerConfig    `mapstructure:"signer"`
	Connector ConnectorConfig `mapstructure:"connector"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("venue.rest_base_url", "https://api.hyperliquid.xyz")
	v.SetDefault("venue.ws_url", "wss://api.hyperliquid.xyz/ws")
	v.SetDefault("venue.is_mainnet", false)
	v.SetDefault("connector.client_order_id_prefix", "hlc")
	v.SetDefault("connector.cancel_backfill_timeout", 2*time.Second)
	v.SetDefault("connector.cancel_backfill_poll", 100*time.Millisecond)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "hl_connector")
	v.SetDefault("metrics.addr", ":9090")
}

// Load reads configuration from path (a YAML file), then applies
// HLCONNECTOR_-prefixed environment variable overrides, e.g.
// HLCONNECTOR_VENUE_USER_ADDRESS overrides venue.user_address.
func Load(path string) (*Config, error) {
	v := viper.New()
	defaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("HLCONNECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Manual overrides for fields viper's automatic env binding won't pick
	// up reliably when they're unset in the file (no default recorded for
	// viper to key the override lookup against).
	if addr := v.GetString("venue.user_address"); addr != "" {
		cfg.Venue.UserAddress = addr
	}
	if ep := v.GetString("signer.endpoint"); ep != "" {
		cfg.Signer.Endpoint = ep
	}

	return &cfg, nil
}

// Validate checks that the configuration is complete enough to start the
// connector.
func (c *Config) Validate() error {
	if c.Venue.RESTBaseURL == "" {
		return fmt.Errorf("venue.rest_base_url is required")
	}
	if c.Venue.WSURL == "" {
		return fmt.Errorf("venue.ws_url is required")
	}
	if c.Venue.UserAddress == "" {
		return fmt.Errorf("venue.user_address is required")
	}
	if c.Signer.Endpoint == "" {
		return fmt.Errorf("signer.endpoint is required")
	}
	if len(c.Connector.TradingPairs) == 0 {
		return fmt.Errorf("connector.trading_pairs must list at least one pair")
	}
	if c.Connector.CancelBackfillTimeout <= 0 {
		return fmt.Errorf("connector.cancel_backfill_timeout must be positive")
	}
	return nil
}
