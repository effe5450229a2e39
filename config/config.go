package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/arbgate/internal/domain"
)

// Config es la configuración completa de arbgate.
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Risk     RiskConfig     `yaml:"risk"`
	Sizing   SizingConfig   `yaml:"sizing"`
	Exits    ExitsConfig    `yaml:"exits"`
	Model    ModelConfig    `yaml:"model"`
	Momentum MomentumConfig `yaml:"momentum"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// ScanConfig controla el scan de arbitraje y el scanner de tiers.
type ScanConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"` // intervalo por defecto de -watch
	MinSpread       float64 `yaml:"min_spread"`       // puntos
	Band            float64 `yaml:"band"`             // zona ambigua alrededor del primario
	ExternalPolicy  string  `yaml:"external_policy"`  // first | decisive
	KalshiMinVolume int64   `yaml:"kalshi_min_volume"`
	KalshiMaxDays   int     `yaml:"kalshi_max_days"`
	TierCapital     float64 `yaml:"tier_capital_usd"`
}

// RiskConfig son los límites del risk gate del trader de Kalshi. Importes en dólares.
type RiskConfig struct {
	Capital             float64 `yaml:"capital_usd"`
	MinCash             float64 `yaml:"min_cash_usd"`
	MinSpread           float64 `yaml:"min_spread"`
	MinROI              float64 `yaml:"min_roi"`
	MinVolume           int64   `yaml:"min_volume"`
	MinEdge             float64 `yaml:"min_edge"`
	MaxDays             int     `yaml:"max_days"`
	MaxPositions        int     `yaml:"max_positions"`
	MaxPositionFraction float64 `yaml:"max_position_fraction"`
	MaxDailyLosses      int     `yaml:"max_daily_losses"`
}

// SizingConfig controla el tamaño de cada orden de Kalshi.
type SizingConfig struct {
	MaxTrade     float64 `yaml:"max_trade_usd"`
	CashBuffer   float64 `yaml:"cash_buffer_usd"`
	MaxContracts int64   `yaml:"max_contracts"`
	MinPrice     int64   `yaml:"min_price_cents"`
	MaxPrice     int64   `yaml:"max_price_cents"`
}

// ExitsConfig son los umbrales de salida como fracción (−0.15 = −15%).
type ExitsConfig struct {
	StopLoss     float64 `yaml:"stop_loss"`
	TakeProfit   float64 `yaml:"take_profit"`
	TrailingStop float64 `yaml:"trailing_stop"` // 0 = desactivado
}

// ModelConfig controla el modelo de probabilidad sobre la serie de FRED.
type ModelConfig struct {
	Series          string    `yaml:"series"`
	Observations    int       `yaml:"observations"`
	Thresholds      []float64 `yaml:"thresholds"`
	EmpiricalWeight float64   `yaml:"empirical_weight"`
	GaussianWeight  float64   `yaml:"gaussian_weight"`
	Disabled        bool      `yaml:"disabled"`
}

// MomentumConfig controla el trader de acciones.
type MomentumConfig struct {
	Watchlist      []string `yaml:"watchlist"`
	ETFs           []string `yaml:"etfs"`
	MinChangePct   float64  `yaml:"min_change_pct"`
	MinVolumeMult  float64  `yaml:"min_volume_mult"`
	RequireVWAP    bool     `yaml:"require_vwap"`
	StopLoss       float64  `yaml:"stop_loss"`
	TakeProfit     float64  `yaml:"take_profit"`
	MaxPositions   int      `yaml:"max_positions"`
	MaxBuysPerRun  int      `yaml:"max_buys_per_run"`
	MaxDailyLosses int      `yaml:"max_daily_losses"`
	EquityFraction float64  `yaml:"equity_fraction"`
	CashBuffer     float64  `yaml:"cash_buffer_usd"`
	MinNotional    float64  `yaml:"min_notional_usd"`
}

// APIConfig contiene base URLs y credenciales. Las credenciales vienen del .env.
type APIConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	RatePerSecond  float64 `yaml:"rate_per_second"`

	KalshiBase           string `yaml:"kalshi_base"`
	KalshiKeyID          string `yaml:"-"`
	KalshiPrivateKeyPath string `yaml:"-"`

	GammaBase     string `yaml:"gamma_base"`
	PredictItBase string `yaml:"predictit_base"`

	OddsBase   string `yaml:"odds_base"`
	OddsAPIKey string `yaml:"-"`

	FREDBase   string `yaml:"fred_base"`
	FREDAPIKey string `yaml:"-"`

	AlpacaBase    string `yaml:"alpaca_base"`
	AlpacaDataURL string `yaml:"alpaca_data"`
	AlpacaKeyID   string `yaml:"-"`
	AlpacaSecret  string `yaml:"-"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	LedgerPath        string `yaml:"ledger_path"` // archivo SQLite, o ":memory:"
	RunLogPath        string `yaml:"runlog_path"`
	TradeStatePath    string `yaml:"trade_state_path"`
	EquitiesStatePath string `yaml:"equities_state_path"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// TelegramConfig activa las alertas si hay token y chat.
type TelegramConfig struct {
	BotToken   string `yaml:"-"`
	ChatID     string `yaml:"chat_id"`
	MaxRetries int    `yaml:"max_retries"`
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Las variables de entorno sobreescriben al YAML. path vacío usa solo defaults y entorno.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate comprueba las credenciales que necesita el modo.
func (c *Config) Validate(mode string) error {
	var errs []error
	switch mode {
	case "scan", "tiers", "history":
	case domain.ModeTrade:
		if c.API.KalshiKeyID == "" {
			errs = append(errs, errors.New("KALSHI_API_KEY_ID is required for trade mode"))
		}
		if c.API.KalshiPrivateKeyPath == "" {
			errs = append(errs, errors.New("KALSHI_PRIVATE_KEY_PATH is required for trade mode"))
		}
	case domain.ModeEquities:
		if c.API.AlpacaKeyID == "" || c.API.AlpacaSecret == "" {
			errs = append(errs, errors.New("ALPACA_API_KEY and ALPACA_SECRET_KEY are required for equities mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", mode))
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		errs = append(errs, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set"))
	}
	if w := c.Model.EmpiricalWeight + c.Model.GaussianWeight; w <= 0 {
		errs = append(errs, errors.New("model weights must add up to more than 0"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	return nil
}

// ScanInterval devuelve el intervalo de escaneo como time.Duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Scan.IntervalSeconds) * time.Second
}

// Timeout devuelve el timeout HTTP configurado.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// TelegramEnabled indica si hay credenciales de Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// EvalParams devuelve los parámetros del evaluador.
func (c *Config) EvalParams() domain.EvalParams {
	return domain.EvalParams{MinSpread: c.Scan.MinSpread, Band: c.Scan.Band}
}

// ExternalPolicy devuelve la política del matcher.
func (c *Config) ExternalPolicy() domain.ExternalPolicy {
	return domain.ParseExternalPolicy(c.Scan.ExternalPolicy)
}

// TierParams devuelve los umbrales del scanner de tiers.
func (c *Config) TierParams() domain.TierParams {
	p := domain.DefaultTierParams()
	p.CapitalCents = dollarsToCents(c.Scan.TierCapital)
	return p
}

// RiskLimits devuelve los límites del risk gate en centavos.
func (c *Config) RiskLimits() domain.RiskLimits {
	return domain.RiskLimits{
		CapitalCents:        dollarsToCents(c.Risk.Capital),
		MinCashCents:        dollarsToCents(c.Risk.MinCash),
		MinSpread:           c.Risk.MinSpread,
		MinROI:              c.Risk.MinROI,
		MinVolume:           c.Risk.MinVolume,
		MinEdge:             c.Risk.MinEdge,
		MaxDays:             c.Risk.MaxDays,
		MaxPositions:        c.Risk.MaxPositions,
		MaxPositionFraction: c.Risk.MaxPositionFraction,
	}
}

// SizingLimits devuelve los límites del sizer en centavos.
func (c *Config) SizingLimits() domain.SizingLimits {
	return domain.SizingLimits{
		MaxTradeCents:   dollarsToCents(c.Sizing.MaxTrade),
		CashBufferCents: dollarsToCents(c.Sizing.CashBuffer),
		MaxContracts:    c.Sizing.MaxContracts,
		MinPrice:        c.Sizing.MinPrice,
		MaxPrice:        c.Sizing.MaxPrice,
	}
}

// ExitLimits devuelve los umbrales de salida de Kalshi.
func (c *Config) ExitLimits() domain.ExitLimits {
	return domain.ExitLimits{
		StopLoss:     c.Exits.StopLoss,
		TakeProfit:   c.Exits.TakeProfit,
		TrailingStop: c.Exits.TrailingStop,
	}
}

// Weights devuelve la mezcla empírica/gaussiana del modelo.
func (c *Config) Weights() domain.Weights {
	return domain.Weights{Empirical: c.Model.EmpiricalWeight, Gaussian: c.Model.GaussianWeight}
}

// MomentumParams devuelve los umbrales del scanner de momentum.
func (c *Config) MomentumParams() domain.MomentumParams {
	return domain.MomentumParams{
		MinChangePct:  c.Momentum.MinChangePct,
		MinVolumeMult: c.Momentum.MinVolumeMult,
		RequireVWAP:   c.Momentum.RequireVWAP,
	}
}

// EquityExitLimits devuelve los umbrales de salida de acciones.
func (c *Config) EquityExitLimits() domain.ExitLimits {
	return domain.ExitLimits{StopLoss: c.Momentum.StopLoss, TakeProfit: c.Momentum.TakeProfit}
}

func dollarsToCents(d float64) int64 {
	if d < 0 {
		return int64(d*100 - 0.5)
	}
	return int64(d*100 + 0.5)
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
		{"ODDS_API_KEY", &cfg.API.OddsAPIKey},
		{"FRED_API_KEY", &cfg.API.FREDAPIKey},
		{"KALSHI_API_KEY_ID", &cfg.API.KalshiKeyID},
		{"KALSHI_PRIVATE_KEY_PATH", &cfg.API.KalshiPrivateKeyPath},
		{"ALPACA_API_KEY", &cfg.API.AlpacaKeyID},
		{"ALPACA_SECRET_KEY", &cfg.API.AlpacaSecret},
		{"ALPACA_BASE_URL", &cfg.API.AlpacaBase},
		{"TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.dst = v
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	scan := domain.DefaultScanParams()
	if cfg.Scan.IntervalSeconds <= 0 {
		cfg.Scan.IntervalSeconds = 300
	}
	if cfg.Scan.MinSpread <= 0 {
		cfg.Scan.MinSpread = scan.MinSpread
	}
	if cfg.Scan.Band <= 0 {
		cfg.Scan.Band = scan.Band
	}
	if cfg.Scan.ExternalPolicy == "" {
		cfg.Scan.ExternalPolicy = domain.ExternalFirst.String()
	}
	if cfg.Scan.KalshiMinVolume <= 0 {
		cfg.Scan.KalshiMinVolume = 500
	}
	if cfg.Scan.KalshiMaxDays <= 0 {
		cfg.Scan.KalshiMaxDays = 60
	}
	if cfg.Scan.TierCapital <= 0 {
		cfg.Scan.TierCapital = 100
	}

	risk := domain.DefaultRiskLimits()
	if cfg.Risk.Capital <= 0 {
		cfg.Risk.Capital = float64(risk.CapitalCents) / 100
	}
	if cfg.Risk.MinCash <= 0 {
		cfg.Risk.MinCash = float64(risk.MinCashCents) / 100
	}
	if cfg.Risk.MinSpread <= 0 {
		cfg.Risk.MinSpread = risk.MinSpread
	}
	if cfg.Risk.MinROI <= 0 {
		cfg.Risk.MinROI = risk.MinROI
	}
	if cfg.Risk.MinVolume <= 0 {
		cfg.Risk.MinVolume = risk.MinVolume
	}
	if cfg.Risk.MinEdge <= 0 {
		cfg.Risk.MinEdge = risk.MinEdge
	}
	if cfg.Risk.MaxDays <= 0 {
		cfg.Risk.MaxDays = risk.MaxDays
	}
	if cfg.Risk.MaxPositions <= 0 {
		cfg.Risk.MaxPositions = risk.MaxPositions
	}
	if cfg.Risk.MaxPositionFraction <= 0 {
		cfg.Risk.MaxPositionFraction = risk.MaxPositionFraction
	}
	if cfg.Risk.MaxDailyLosses <= 0 {
		cfg.Risk.MaxDailyLosses = 3
	}

	sizing := domain.DefaultSizingLimits()
	if cfg.Sizing.MaxTrade <= 0 {
		cfg.Sizing.MaxTrade = float64(sizing.MaxTradeCents) / 100
	}
	if cfg.Sizing.CashBuffer <= 0 {
		cfg.Sizing.CashBuffer = float64(sizing.CashBufferCents) / 100
	}
	if cfg.Sizing.MaxContracts <= 0 {
		cfg.Sizing.MaxContracts = sizing.MaxContracts
	}
	if cfg.Sizing.MinPrice <= 0 {
		cfg.Sizing.MinPrice = sizing.MinPrice
	}
	if cfg.Sizing.MaxPrice <= 0 {
		cfg.Sizing.MaxPrice = sizing.MaxPrice
	}

	exits := domain.DefaultExitLimits()
	if cfg.Exits.StopLoss >= 0 {
		cfg.Exits.StopLoss = exits.StopLoss
	}
	if cfg.Exits.TakeProfit <= 0 {
		cfg.Exits.TakeProfit = exits.TakeProfit
	}

	if cfg.Model.Series == "" {
		cfg.Model.Series = "CPIAUCSL"
	}
	if cfg.Model.Observations <= 0 {
		cfg.Model.Observations = 120
	}
	if len(cfg.Model.Thresholds) == 0 {
		cfg.Model.Thresholds = domain.DefaultThresholds()
	}
	if cfg.Model.EmpiricalWeight == 0 && cfg.Model.GaussianWeight == 0 {
		w := domain.DefaultWeights()
		cfg.Model.EmpiricalWeight = w.Empirical
		cfg.Model.GaussianWeight = w.Gaussian
	}

	mom := domain.DefaultMomentumParams()
	if len(cfg.Momentum.Watchlist) == 0 {
		cfg.Momentum.Watchlist = []string{"NVDA", "TSLA", "AMD", "META", "PLTR", "SOFI"}
	}
	if len(cfg.Momentum.ETFs) == 0 {
		cfg.Momentum.ETFs = []string{"SPY", "QQQ"}
	}
	if cfg.Momentum.MinChangePct <= 0 {
		cfg.Momentum.MinChangePct = mom.MinChangePct
	}
	if cfg.Momentum.MinVolumeMult <= 0 {
		cfg.Momentum.MinVolumeMult = mom.MinVolumeMult
	}
	if cfg.Momentum.StopLoss >= 0 {
		cfg.Momentum.StopLoss = -0.03
	}
	if cfg.Momentum.TakeProfit <= 0 {
		cfg.Momentum.TakeProfit = 0.06
	}
	if cfg.Momentum.MaxPositions <= 0 {
		cfg.Momentum.MaxPositions = 2
	}
	if cfg.Momentum.MaxBuysPerRun <= 0 {
		cfg.Momentum.MaxBuysPerRun = 1
	}
	if cfg.Momentum.MaxDailyLosses <= 0 {
		cfg.Momentum.MaxDailyLosses = 2
	}
	if cfg.Momentum.EquityFraction <= 0 {
		cfg.Momentum.EquityFraction = 0.5
	}
	if cfg.Momentum.CashBuffer <= 0 {
		cfg.Momentum.CashBuffer = 5
	}
	if cfg.Momentum.MinNotional <= 0 {
		cfg.Momentum.MinNotional = 10
	}

	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 15
	}
	if cfg.API.RatePerSecond <= 0 {
		cfg.API.RatePerSecond = 10
	}

	if cfg.Storage.LedgerPath == "" {
		cfg.Storage.LedgerPath = "data/arbgate.db"
	}
	if cfg.Storage.RunLogPath == "" {
		cfg.Storage.RunLogPath = "data/runlog.jsonl"
	}
	if cfg.Storage.TradeStatePath == "" {
		cfg.Storage.TradeStatePath = "data/trader_state.json"
	}
	if cfg.Storage.EquitiesStatePath == "" {
		cfg.Storage.EquitiesStatePath = "data/equities_state.json"
	}

	if cfg.Telegram.MaxRetries <= 0 {
		cfg.Telegram.MaxRetries = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
