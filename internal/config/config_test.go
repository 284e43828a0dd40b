package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
time_step: 1
max_time: 1000
seed: 42
market:
  tickers: ["ACME"]
  ohlcv_periods: [10, 100]
  store_tick_data: true
  max_ticks: 500
  tick_decimals: 2
agents:
  - id: 1
    type: zero_intelligence
    ticker: ACME
    activation_rate: 1.0
    max_order_size: 10
    limit_order_rate: 0.5
    market_order_rate: 0.1
    cancellation_rate: 0.1
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadParsesYAMLIntoConfig(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 1, cfg.TimeStep)
	assert.EqualValues(t, 1000, cfg.MaxTime)
	assert.EqualValues(t, 42, cfg.Seed)
	assert.Equal(t, []string{"ACME"}, cfg.Market.Tickers)
	require.Len(t, cfg.Agents, 1)
	assert.Equal(t, "zero_intelligence", cfg.Agents[0].Type)
	require.NoError(t, cfg.Validate())
}

func TestLoadReturnsErrorForMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func validConfig() Config {
	return Config{
		Market:   MarketConfig{Tickers: []string{"ACME"}},
		TimeStep: 1,
		MaxTime:  1000,
		Agents: []AgentConfig{
			{ID: 1, Type: "zero_intelligence", ActivationRate: 1.0},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsNoTickers(t *testing.T) {
	cfg := validConfig()
	cfg.Market.Tickers = nil
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveTimeStep(t *testing.T) {
	cfg := validConfig()
	cfg.TimeStep = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveMaxTime(t *testing.T) {
	cfg := validConfig()
	cfg.MaxTime = -1
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroAgentID(t *testing.T) {
	cfg := validConfig()
	cfg.Agents[0].ID = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsDuplicateAgentID(t *testing.T) {
	cfg := validConfig()
	cfg.Agents = append(cfg.Agents, AgentConfig{ID: 1, Type: "chartist", ActivationRate: 1.0})
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNonPositiveActivationRate(t *testing.T) {
	cfg := validConfig()
	cfg.Agents[0].ActivationRate = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownAgentType(t *testing.T) {
	cfg := validConfig()
	cfg.Agents[0].Type = "momentum_bot"
	assert.Error(t, cfg.Validate())
}
