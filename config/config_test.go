package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateFailsOnBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"log level":      func(c *Config) { c.Log.Level = "loud" },
		"zero warmup":    func(c *Config) { c.Backtest.WarmupBars = 0 },
		"max hold":       func(c *Config) { c.Backtest.MaxHoldBars = 0 },
		"min bars":       func(c *Config) { c.Backtest.MinBars = 10 },
		"win rate":       func(c *Config) { c.Optimizer.MinWinRate = 120 },
		"empty tpsl":     func(c *Config) { c.Optimizer.TPSL = nil },
		"negative tp":    func(c *Config) { c.Optimizer.TPSL[0].TakeProfitPct = -1 },
		"global cap":     func(c *Config) { c.Signals.GlobalDailyCap = 0 },
		"poll interval":  func(c *Config) { c.Signals.PollInterval = time.Millisecond },
		"trades per day": func(c *Config) { c.Signals.MinTradesPerDay = 9 },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

/*
-----------------------------------------------------------------------
File values override defaults, environment overrides the file.
-----------------------------------------------------------------------
*/
func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cryptoden.yaml")
	yaml := `
data_dir: /var/lib/cryptoden
signals:
  global_daily_cap: 10
  default_cooldown: 45m
optimizer:
  tpsl:
    - {tp_percent: 1.0, sl_percent: 0.5}
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRYPTODEN_SIGNALS_DEFAULT_DAILY_CAP", "4")
	t.Setenv("CRYPTODEN_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DataDir != "/var/lib/cryptoden" || cfg.Signals.GlobalDailyCap != 10 {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Signals.DefaultCooldown != 45*time.Minute {
		t.Fatalf("expected 45m cooldown, got %v", cfg.Signals.DefaultCooldown)
	}
	if len(cfg.Optimizer.TPSL) != 1 || cfg.Optimizer.TPSL[0].TakeProfitPct != 1 {
		t.Fatalf("unexpected tpsl %+v", cfg.Optimizer.TPSL)
	}
	if cfg.Signals.DefaultDailyCap != 4 || cfg.Log.Level != "debug" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Signals.SignalTTL != 30*time.Minute || cfg.Backtest.MaxHoldBars != 100 {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("CRYPTODEN_BACKTEST_MAX_HOLD_BARS", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error from env override")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
