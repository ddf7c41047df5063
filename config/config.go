package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/backtest"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/optimizer"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/signal"
)

// EnvPrefix prefixes every environment override, e.g.
// CRYPTODEN_SIGNALS_GLOBAL_DAILY_CAP=10.
const EnvPrefix = "CRYPTODEN"

// Config holds every tunable of the engine and its harnesses.
type Config struct {
	// DataDir holds one candle file per symbol (BTC.csv, ETH.json, ...).
	DataDir string `mapstructure:"data_dir" yaml:"data_dir"`
	// BookPath is the YAML strategy book; empty uses the built-in book.
	BookPath string `mapstructure:"book_path" yaml:"book_path"`
	// StatePath persists the throttle state across restarts; empty
	// disables persistence.
	StatePath string `mapstructure:"state_path" yaml:"state_path"`

	Log       LogConfig        `mapstructure:"log" yaml:"log"`
	Metrics   MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Backtest  backtest.Options `mapstructure:"backtest" yaml:"backtest"`
	Runner    RunnerConfig     `mapstructure:"runner" yaml:"runner"`
	Optimizer OptimizerConfig  `mapstructure:"optimizer" yaml:"optimizer"`
	Signals   signal.Options   `mapstructure:"signals" yaml:"signals"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint; empty disables it.
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// RunnerConfig tunes batch backtests.
type RunnerConfig struct {
	Workers    int     `mapstructure:"workers" yaml:"workers"`
	MinTrades  int     `mapstructure:"min_trades" yaml:"min_trades"`
	MinWinRate float64 `mapstructure:"min_win_rate" yaml:"min_win_rate"`
	Top        int     `mapstructure:"top" yaml:"top"`
}

type OptimizerConfig struct {
	Workers    int              `mapstructure:"workers" yaml:"workers"`
	MinTrades  int              `mapstructure:"min_trades" yaml:"min_trades"`
	MinWinRate float64          `mapstructure:"min_win_rate" yaml:"min_win_rate"`
	Symbols    []string         `mapstructure:"symbols" yaml:"symbols"`
	TPSL       []optimizer.TPSL `mapstructure:"tpsl" yaml:"tpsl"`
}

// Default returns the production defaults.
func Default() Config {
	return Config{
		DataDir:  "data",
		Log:      LogConfig{Level: "info"},
		Metrics:  MetricsConfig{Addr: ":9102"},
		Backtest: backtest.DefaultOptions(),
		Runner: RunnerConfig{
			MinTrades:  5,
			MinWinRate: 60,
			Top:        20,
		},
		Optimizer: OptimizerConfig{
			MinTrades:  optimizer.DefaultMinTrades,
			MinWinRate: optimizer.DefaultMinWinRate,
			Symbols:    []string{"BTC", "ETH", "SOL", "BNB", "XRP", "ADA", "DOGE", "AVAX", "LINK"},
			TPSL:       optimizer.DefaultTPSL(),
		},
		Signals: signal.DefaultOptions(),
	}
}

// Validate checks that all fields are within sensible bounds and returns
// the first problem found.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.Errorf("log.level %q must be debug, info, warn or error", c.Log.Level)
	}
	b := c.Backtest
	if b.WarmupBars <= 0 {
		return errors.New("backtest.warmup_bars must be positive")
	}
	if b.MaxHoldBars <= 0 {
		return errors.New("backtest.max_hold_bars must be positive")
	}
	if b.MinBars < b.WarmupBars {
		return errors.Errorf("backtest.min_bars (%d) must be >= warmup_bars (%d)", b.MinBars, b.WarmupBars)
	}
	if c.Runner.MinTrades < 0 || c.Optimizer.MinTrades < 0 {
		return errors.New("min_trades cannot be negative")
	}
	if !percent(c.Runner.MinWinRate) || !percent(c.Optimizer.MinWinRate) {
		return errors.New("min_win_rate must be within [0, 100]")
	}
	if len(c.Optimizer.TPSL) == 0 {
		return errors.New("optimizer.tpsl needs at least one pair")
	}
	for i, p := range c.Optimizer.TPSL {
		if p.TakeProfitPct <= 0 || p.StopLossPct <= 0 {
			return errors.Errorf("optimizer.tpsl[%d] (%g/%g) must be positive", i, p.TakeProfitPct, p.StopLossPct)
		}
	}
	s := c.Signals
	if s.WarmupBars <= 0 {
		return errors.New("signals.warmup_bars must be positive")
	}
	if s.GlobalDailyCap <= 0 || s.DefaultDailyCap <= 0 {
		return errors.New("signals daily caps must be positive")
	}
	if s.DefaultCooldown < 0 {
		return errors.New("signals.default_cooldown cannot be negative")
	}
	if s.SignalTTL <= 0 {
		return errors.New("signals.signal_ttl must be positive")
	}
	if s.PollInterval < time.Second {
		return errors.Errorf("signals.poll_interval (%s) must be at least 1s", s.PollInterval)
	}
	if !percent(s.MinWinRate) {
		return errors.New("signals.min_win_rate must be within [0, 100]")
	}
	if s.MaxTradesPerDay > 0 && s.MinTradesPerDay > s.MaxTradesPerDay {
		return errors.New("signals.min_trades_per_day exceeds max_trades_per_day")
	}
	return nil
}

func percent(v float64) bool { return v >= 0 && v <= 100 }

// Load reads .env (if present), then the YAML file at path (if non-empty),
// then CRYPTODEN_* environment overrides, on top of Default().
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &cfg, nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("book_path", d.BookPath)
	v.SetDefault("state_path", d.StatePath)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("metrics.addr", d.Metrics.Addr)

	v.SetDefault("backtest.warmup_bars", d.Backtest.WarmupBars)
	v.SetDefault("backtest.max_hold_bars", d.Backtest.MaxHoldBars)
	v.SetDefault("backtest.min_bars", d.Backtest.MinBars)

	v.SetDefault("runner.workers", d.Runner.Workers)
	v.SetDefault("runner.min_trades", d.Runner.MinTrades)
	v.SetDefault("runner.min_win_rate", d.Runner.MinWinRate)
	v.SetDefault("runner.top", d.Runner.Top)

	v.SetDefault("optimizer.workers", d.Optimizer.Workers)
	v.SetDefault("optimizer.min_trades", d.Optimizer.MinTrades)
	v.SetDefault("optimizer.min_win_rate", d.Optimizer.MinWinRate)
	v.SetDefault("optimizer.symbols", d.Optimizer.Symbols)
	tpsl := make([]map[string]interface{}, len(d.Optimizer.TPSL))
	for i, p := range d.Optimizer.TPSL {
		tpsl[i] = map[string]interface{}{"tp_percent": p.TakeProfitPct, "sl_percent": p.StopLossPct}
	}
	v.SetDefault("optimizer.tpsl", tpsl)

	s := d.Signals
	v.SetDefault("signals.warmup_bars", s.WarmupBars)
	v.SetDefault("signals.global_daily_cap", s.GlobalDailyCap)
	v.SetDefault("signals.default_daily_cap", s.DefaultDailyCap)
	v.SetDefault("signals.default_cooldown", s.DefaultCooldown)
	v.SetDefault("signals.signal_ttl", s.SignalTTL)
	v.SetDefault("signals.min_win_rate", s.MinWinRate)
	v.SetDefault("signals.min_trades_per_day", s.MinTradesPerDay)
	v.SetDefault("signals.max_trades_per_day", s.MaxTradesPerDay)
	v.SetDefault("signals.poll_interval", s.PollInterval)
}
