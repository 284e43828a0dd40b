// Package config loads the simulation's structured input from a YAML
// file via viper, env-overridable.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level simulation configuration.
type Config struct {
	Market   MarketConfig  `mapstructure:"market"`
	Agents   []AgentConfig `mapstructure:"agents"`
	TimeStep int64         `mapstructure:"time_step"`
	MaxTime  int64         `mapstructure:"max_time"`
	Seed     uint64        `mapstructure:"seed"`
}

// MarketConfig controls per-ticker market-data retention.
type MarketConfig struct {
	Tickers       []string `mapstructure:"tickers"`
	OHLCVPeriods  []int    `mapstructure:"ohlcv_periods"`
	StoreTickData bool     `mapstructure:"store_tick_data"`
	MaxTicks      int      `mapstructure:"max_ticks"`
	TickDecimals  int32    `mapstructure:"tick_decimals"`
}

// AgentConfig is one entry in the agents[] roster: id, type tag, and
// per-type parameters. Parameters unused by a given type are simply left
// at their zero value.
type AgentConfig struct {
	ID               uint64  `mapstructure:"id"`
	Type             string  `mapstructure:"type"`
	Ticker           string  `mapstructure:"ticker"`
	ActivationRate   float64 `mapstructure:"activation_rate"`
	MaxOrderSize     uint64  `mapstructure:"max_order_size"`
	LimitOrderRate   float64 `mapstructure:"limit_order_rate"`
	MarketOrderRate  float64 `mapstructure:"market_order_rate"`
	CancellationRate float64 `mapstructure:"cancellation_rate"`
	FundamentalValue float64 `mapstructure:"fundamental_value"`
	IndicatorWindow  int     `mapstructure:"indicator_window"`
	BarPeriod        int     `mapstructure:"bar_period"`
}

// Load reads config from a YAML (or viper-supported) file at path, with
// FENRIR_-prefixed environment variables overriding keys the file sets.
// A key absent from the file is not picked up from the environment, since
// Unmarshal only visits keys viper already knows.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("FENRIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the structural requirements a configuration must
// satisfy before a Simulation is built from it.
func (c *Config) Validate() error {
	if len(c.Market.Tickers) == 0 {
		return fmt.Errorf("market.tickers must list at least one ticker")
	}
	if c.TimeStep <= 0 {
		return fmt.Errorf("time_step must be > 0")
	}
	if c.MaxTime <= 0 {
		return fmt.Errorf("max_time must be > 0")
	}
	seen := make(map[uint64]bool, len(c.Agents))
	for _, a := range c.Agents {
		if a.ID == 0 {
			return fmt.Errorf("agent id must be a positive integer")
		}
		if seen[a.ID] {
			return fmt.Errorf("agent id %d is registered more than once", a.ID)
		}
		seen[a.ID] = true
		if a.ActivationRate <= 0 {
			return fmt.Errorf("agent %d: activation_rate must be > 0", a.ID)
		}
		switch a.Type {
		case "zero_intelligence", "fundamentalist", "chartist":
		default:
			return fmt.Errorf("agent %d: unknown type %q", a.ID, a.Type)
		}
	}
	return nil
}
