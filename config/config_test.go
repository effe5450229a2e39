package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/arbgate/config"
	"github.com/alejandrodnm/arbgate/internal/domain"
)

var credentialEnv = []string{
	"LOG_LEVEL", "LOG_FORMAT", "ODDS_API_KEY", "FRED_API_KEY",
	"KALSHI_API_KEY_ID", "KALSHI_PRIVATE_KEY_PATH",
	"ALPACA_API_KEY", "ALPACA_SECRET_KEY", "ALPACA_BASE_URL",
	"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range credentialEnv {
		t.Setenv(k, "")
	}
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultRiskLimits(), cfg.RiskLimits())
	assert.Equal(t, domain.DefaultSizingLimits(), cfg.SizingLimits())
	assert.Equal(t, domain.DefaultExitLimits(), cfg.ExitLimits())
	assert.Equal(t, domain.DefaultScanParams(), cfg.EvalParams())
	assert.Equal(t, domain.DefaultWeights(), cfg.Weights())
	assert.Equal(t, domain.DefaultMomentumParams(), cfg.MomentumParams())
	assert.Equal(t, domain.DefaultTierParams(), cfg.TierParams())
	assert.Equal(t, domain.ExternalFirst, cfg.ExternalPolicy())
	assert.Equal(t, domain.ExitLimits{StopLoss: -0.03, TakeProfit: 0.06}, cfg.EquityExitLimits())

	assert.Equal(t, 5*time.Minute, cfg.ScanInterval())
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, "data/arbgate.db", cfg.Storage.LedgerPath)
	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Momentum.ETFs)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLValues(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
scan:
  min_spread: 4
  external_policy: decisive
risk:
  capital_usd: 250
  min_cash_usd: 12.5
exits:
  stop_loss: -0.10
  trailing_stop: 0.05
momentum:
  watchlist: [AAPL]
  require_vwap: true
storage:
  ledger_path: ":memory:"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4.0, cfg.EvalParams().MinSpread)
	assert.Equal(t, 3.0, cfg.EvalParams().Band)
	assert.Equal(t, domain.ExternalDecisive, cfg.ExternalPolicy())

	risk := cfg.RiskLimits()
	assert.Equal(t, int64(25_000), risk.CapitalCents)
	assert.Equal(t, int64(1250), risk.MinCashCents)

	exits := cfg.ExitLimits()
	assert.Equal(t, -0.10, exits.StopLoss)
	assert.Equal(t, 0.20, exits.TakeProfit)
	assert.Equal(t, 0.05, exits.TrailingStop)

	assert.Equal(t, []string{"AAPL"}, cfg.Momentum.Watchlist)
	assert.True(t, cfg.MomentumParams().RequireVWAP)
	assert.Equal(t, ":memory:", cfg.Storage.LedgerPath)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALPACA_BASE_URL", "https://paper-api.alpaca.markets")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	path := writeYAML(t, `
log:
  level: warn
api:
  alpaca_base: https://api.alpaca.markets
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "https://paper-api.alpaca.markets", cfg.API.AlpacaBase)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, 3, cfg.Telegram.MaxRetries)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = config.Load(writeYAML(t, "scan: [not, a, map"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.NoError(t, cfg.Validate("scan"))
	assert.NoError(t, cfg.Validate("tiers"))
	assert.NoError(t, cfg.Validate("history"))

	err = cfg.Validate("trade")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KALSHI_API_KEY_ID")
	assert.Contains(t, err.Error(), "KALSHI_PRIVATE_KEY_PATH")

	err = cfg.Validate("equities")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ALPACA_API_KEY")

	assert.Error(t, cfg.Validate("backtest"))

	cfg.API.KalshiKeyID = "key"
	cfg.API.KalshiPrivateKeyPath = "/tmp/key.pem"
	assert.NoError(t, cfg.Validate("trade"))

	cfg.Telegram.BotToken = "123:abc"
	err = cfg.Validate("trade")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_CHAT_ID")
}

func TestExampleConfigLoads(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load("config.example.yaml")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRiskLimits(), cfg.RiskLimits())
	assert.Equal(t, domain.DefaultSizingLimits(), cfg.SizingLimits())
	assert.NoError(t, cfg.Validate("scan"))
}
