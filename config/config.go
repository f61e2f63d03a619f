package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable of the bot. Values come from SIGNALBOT_*
// environment variables (optionally via a .env file); the defaults mirror
// the settings the strategy was tuned with.
type Config struct {
	// Trading
	DefaultSymbol string  `envconfig:"DEFAULT_SYMBOL" default:"BTC/USDT"`
	Timeframe     string  `envconfig:"TIMEFRAME" default:"1h"`
	BarLimit      int     `envconfig:"BAR_LIMIT" default:"100"`
	TradeAmount   float64 `envconfig:"TRADE_AMOUNT" default:"100"` // quote currency per trade
	MaxPositions  int     `envconfig:"MAX_POSITIONS" default:"3"`

	// Indicator periods
	Indicators Periods `envconfig:"INDICATORS"`

	// Default thresholds for symbols without a profile
	RSIOversold   float64 `envconfig:"RSI_OVERSOLD" default:"30"`
	RSIOverbought float64 `envconfig:"RSI_OVERBOUGHT" default:"70"`
	StopLossPct   float64 `envconfig:"STOP_LOSS" default:"0.02"`
	TakeProfitPct float64 `envconfig:"TAKE_PROFIT" default:"0.03"`

	Risk RiskLimits `envconfig:"RISK"`

	// Loop pacing
	UpdateInterval time.Duration `envconfig:"UPDATE_INTERVAL" default:"1s"`
	DaemonInterval time.Duration `envconfig:"DAEMON_INTERVAL" default:"60s"`
	ErrorBackoff   time.Duration `envconfig:"ERROR_BACKOFF" default:"10s"`

	// Collaborators
	DataSource   string  `envconfig:"DATA_SOURCE" default:"okx"` // okx | synthetic
	OKXBaseURL   string  `envconfig:"OKX_BASE_URL" default:"https://www.okx.com"`
	Executor     string  `envconfig:"EXECUTOR" default:"paper"` // paper | none
	PaperBalance float64 `envconfig:"PAPER_BALANCE" default:"10000"`
	APIKey       string  `envconfig:"API_KEY"`
	APISecret    string  `envconfig:"API_SECRET"`
	Passphrase   string  `envconfig:"API_PASSPHRASE"`

	// Dashboard
	WebHost string `envconfig:"WEB_HOST" default:"127.0.0.1"`
	WebPort int    `envconfig:"WEB_PORT" default:"8050"`

	ProfilesPath string `envconfig:"PROFILES_PATH"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile      string `envconfig:"LOG_FILE" default:"signalbot.log"`
}

// Periods are the fixed look-back windows of the indicator engine.
type Periods struct {
	RSI        int     `envconfig:"RSI" default:"14"`
	MACDFast   int     `envconfig:"MACD_FAST" default:"12"`
	MACDSlow   int     `envconfig:"MACD_SLOW" default:"26"`
	MACDSignal int     `envconfig:"MACD_SIGNAL" default:"9"`
	MAShort    int     `envconfig:"MA_SHORT" default:"20"`
	MALong     int     `envconfig:"MA_LONG" default:"50"`
	BBPeriod   int     `envconfig:"BB_PERIOD" default:"20"`
	BBStdDev   float64 `envconfig:"BB_STDDEV" default:"2"`
	Volume     int     `envconfig:"VOLUME" default:"20"`
}

// RiskLimits are the account-level guards enforced by the risk manager.
type RiskLimits struct {
	DailyTradesLimit  int           `envconfig:"DAILY_TRADES_LIMIT" default:"20"`
	DailyLossMultiple float64       `envconfig:"DAILY_LOSS_MULTIPLE" default:"5"` // x TradeAmount
	MaxDrawdown       float64       `envconfig:"MAX_DRAWDOWN" default:"0.10"`
	BalanceBuffer     float64       `envconfig:"BALANCE_BUFFER" default:"1.1"`
	MinTradeAmount    float64       `envconfig:"MIN_TRADE_AMOUNT" default:"10"`
	RiskPerTrade      float64       `envconfig:"RISK_PER_TRADE" default:"0.02"`
	MaxHold           time.Duration `envconfig:"MAX_HOLD" default:"24h"`
}

// DefaultPeriods returns the standard indicator windows.
func DefaultPeriods() Periods {
	return Periods{
		RSI: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		MAShort: 20, MALong: 50, BBPeriod: 20, BBStdDev: 2, Volume: 20,
	}
}

// DefaultRiskLimits returns the standard account guards.
func DefaultRiskLimits() RiskLimits {
	return RiskLimits{
		DailyTradesLimit:  20,
		DailyLossMultiple: 5,
		MaxDrawdown:       0.10,
		BalanceBuffer:     1.1,
		MinTradeAmount:    10,
		RiskPerTrade:      0.02,
		MaxHold:           24 * time.Hour,
	}
}

// Default returns the configuration used when no environment is set.
func Default() Config {
	return Config{
		DefaultSymbol:  "BTC/USDT",
		Timeframe:      "1h",
		BarLimit:       100,
		TradeAmount:    100,
		MaxPositions:   3,
		Indicators:     DefaultPeriods(),
		RSIOversold:    30,
		RSIOverbought:  70,
		StopLossPct:    0.02,
		TakeProfitPct:  0.03,
		Risk:           DefaultRiskLimits(),
		UpdateInterval: time.Second,
		DaemonInterval: time.Minute,
		ErrorBackoff:   10 * time.Second,
		DataSource:     "okx",
		OKXBaseURL:     "https://www.okx.com",
		Executor:       "paper",
		PaperBalance:   10_000,
		WebHost:        "127.0.0.1",
		WebPort:        8050,
		LogLevel:       "info",
		LogFile:        "signalbot.log",
	}
}

// Load reads an optional .env file, then SIGNALBOT_* variables on top of
// the defaults. The result is validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SIGNALBOT", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// HasCredentials reports whether exchange credentials were supplied.
func (c *Config) HasCredentials() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// DailyLossLimit is the absolute quote amount the bot may lose per day.
func (c *Config) DailyLossLimit() float64 {
	return c.TradeAmount * c.Risk.DailyLossMultiple
}

// DefaultProfile is the profile applied to symbols missing from the table.
func (c *Config) DefaultProfile() SymbolProfile {
	return SymbolProfile{
		RSIOversold:   c.RSIOversold,
		RSIOverbought: c.RSIOverbought,
		StopLoss:      c.StopLossPct,
		TakeProfit:    c.TakeProfitPct,
		Volatility:    Medium,
	}
}

// Validate checks that all numeric fields are within sensible bounds.
// It returns the first encountered error so a configuration problem
// surfaces before any trading starts.
func (c *Config) Validate() error {
	if c.DefaultSymbol == "" {
		return errors.New("DefaultSymbol must be set")
	}
	if c.BarLimit < c.Indicators.MALong {
		return fmt.Errorf("BarLimit (%d) must cover MALong (%d)", c.BarLimit, c.Indicators.MALong)
	}
	if c.TradeAmount <= 0 {
		return fmt.Errorf("TradeAmount (%f) must be positive", c.TradeAmount)
	}
	if c.MaxPositions <= 0 {
		return errors.New("MaxPositions must be positive")
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	if c.RSIOversold >= c.RSIOverbought {
		return errors.New("RSIOversold must be below RSIOverbought")
	}
	if c.StopLossPct <= 0 || c.StopLossPct >= 1 {
		return fmt.Errorf("StopLossPct (%f) must be >0 and <1", c.StopLossPct)
	}
	if c.TakeProfitPct <= 0 || c.TakeProfitPct > 5 {
		return fmt.Errorf("TakeProfitPct (%f) out of realistic range", c.TakeProfitPct)
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if c.UpdateInterval <= 0 || c.DaemonInterval <= 0 {
		return errors.New("loop intervals must be positive")
	}
	if c.ErrorBackoff < 0 {
		return errors.New("ErrorBackoff cannot be negative")
	}
	switch c.DataSource {
	case "okx", "synthetic":
	default:
		return fmt.Errorf("unknown DataSource %q", c.DataSource)
	}
	switch c.Executor {
	case "paper", "none":
	default:
		return fmt.Errorf("unknown Executor %q", c.Executor)
	}
	if c.Executor == "paper" && c.PaperBalance < 0 {
		return errors.New("PaperBalance cannot be negative")
	}
	if c.WebPort <= 0 || c.WebPort > 65535 {
		return fmt.Errorf("WebPort (%d) out of range", c.WebPort)
	}
	return nil
}

// Validate checks the indicator windows.
func (p Periods) Validate() error {
	for name, v := range map[string]int{
		"RSI": p.RSI, "MACDFast": p.MACDFast, "MACDSlow": p.MACDSlow,
		"MACDSignal": p.MACDSignal, "MAShort": p.MAShort, "MALong": p.MALong,
		"BBPeriod": p.BBPeriod, "Volume": p.Volume,
	} {
		if v <= 0 {
			return fmt.Errorf("%s period must be positive", name)
		}
	}
	if p.MACDFast >= p.MACDSlow {
		return errors.New("MACDFast must be shorter than MACDSlow")
	}
	if p.MAShort >= p.MALong {
		return errors.New("MAShort must be shorter than MALong")
	}
	if p.BBStdDev <= 0 {
		return errors.New("BBStdDev must be positive")
	}
	return nil
}

// Validate checks the account guards.
func (r RiskLimits) Validate() error {
	if r.DailyTradesLimit <= 0 {
		return errors.New("DailyTradesLimit must be positive")
	}
	if r.DailyLossMultiple <= 0 {
		return errors.New("DailyLossMultiple must be positive")
	}
	if r.MaxDrawdown <= 0 || r.MaxDrawdown >= 1 {
		return fmt.Errorf("MaxDrawdown (%f) must be >0 and <1", r.MaxDrawdown)
	}
	if r.BalanceBuffer < 1 {
		return fmt.Errorf("BalanceBuffer (%f) must be >= 1", r.BalanceBuffer)
	}
	if r.MinTradeAmount < 0 {
		return errors.New("MinTradeAmount cannot be negative")
	}
	if r.RiskPerTrade <= 0 || r.RiskPerTrade > 0.5 {
		return fmt.Errorf("RiskPerTrade (%f) must be >0 and <=0.5", r.RiskPerTrade)
	}
	if r.MaxHold <= 0 {
		return errors.New("MaxHold must be positive")
	}
	return nil
}
