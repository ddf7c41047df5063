package signal

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/metrics"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/risk"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Clock is the time source of a Checker.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock in UTC.
func SystemClock() Clock { return systemClock{} }

// Options tunes the live checker.
type Options struct {
	WarmupBars      int           `mapstructure:"warmup_bars" yaml:"warmup_bars"`
	GlobalDailyCap  int           `mapstructure:"global_daily_cap" yaml:"global_daily_cap"`
	DefaultDailyCap int           `mapstructure:"default_daily_cap" yaml:"default_daily_cap"`
	DefaultCooldown time.Duration `mapstructure:"default_cooldown" yaml:"default_cooldown"`
	SignalTTL       time.Duration `mapstructure:"signal_ttl" yaml:"signal_ttl"`
	MinWinRate      float64       `mapstructure:"min_win_rate" yaml:"min_win_rate"`
	MinTradesPerDay float64       `mapstructure:"min_trades_per_day" yaml:"min_trades_per_day"`
	MaxTradesPerDay float64       `mapstructure:"max_trades_per_day" yaml:"max_trades_per_day"`
	PollInterval    time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

func DefaultOptions() Options {
	return Options{
		WarmupBars:      50,
		GlobalDailyCap:  15,
		DefaultDailyCap: 3,
		DefaultCooldown: 60 * time.Minute,
		SignalTTL:       30 * time.Minute,
		MinWinRate:      60,
		MinTradesPerDay: 0.5,
		MaxTradesPerDay: 5,
		PollInterval:    time.Minute,
	}
}

// Assignment is a live strategy bound to its symbol.
type Assignment struct {
	Def      strategy.Definition
	Strategy *strategy.Strategy
	// Active is false for definitions that are disabled or fall outside
	// the win rate / trades-per-day band.
	Active bool
}

// Checker evaluates the live strategies of each symbol on the latest bar
// and emits throttled signals. It owns the throttle state; all methods are
// safe for concurrent use.
type Checker struct {
	opts     Options
	clock    Clock
	log      logger.Logger
	bySymbol map[string][]Assignment

	mu    sync.Mutex
	state *ThrottleState
	last  map[string]*types.Signal
}

// NewChecker compiles the book. A nil state starts a fresh day; a nil
// clock uses the wall clock.
func NewChecker(book *strategy.Book, opts Options, clock Clock, state *ThrottleState, log logger.Logger) (*Checker, error) {
	if clock == nil {
		clock = SystemClock()
	}
	if log == nil {
		log = logger.NewNop()
	}
	if state == nil {
		state = NewThrottleState(clock.Now())
	}
	c := &Checker{
		opts:     opts,
		clock:    clock,
		log:      log,
		bySymbol: make(map[string][]Assignment),
		state:    state,
		last:     make(map[string]*types.Signal),
	}
	for _, sym := range book.Symbols() {
		for _, d := range book.ForSymbol(sym) {
			st, err := d.Compile()
			if err != nil {
				return nil, err
			}
			c.bySymbol[sym] = append(c.bySymbol[sym], Assignment{Def: d, Strategy: st, Active: c.active(d)})
		}
	}
	return c, nil
}

func (c *Checker) active(d strategy.Definition) bool {
	if !d.IsEnabled() {
		return false
	}
	if d.AvgWinRate < c.opts.MinWinRate {
		return false
	}
	if d.TradesPerDay > 0 {
		if c.opts.MinTradesPerDay > 0 && d.TradesPerDay < c.opts.MinTradesPerDay {
			return false
		}
		if c.opts.MaxTradesPerDay > 0 && d.TradesPerDay > c.opts.MaxTradesPerDay {
			return false
		}
	}
	return true
}

// Symbols lists the symbols that have at least one assignment, sorted.
func (c *Checker) Symbols() []string { return sortedKeys(c.bySymbol) }

// Assignments returns the symbol's strategies, LONG before SHORT.
func (c *Checker) Assignments(symbol string) []Assignment {
	return append([]Assignment(nil), c.bySymbol[symbol]...)
}

func (c *Checker) limits(d strategy.Definition) Limits {
	lim := Limits{DailyCap: d.MaxSignalsPerDay, GlobalCap: c.opts.GlobalDailyCap, Cooldown: c.opts.DefaultCooldown}
	if lim.DailyCap == 0 {
		lim.DailyCap = c.opts.DefaultDailyCap
	}
	if d.MinMinutesBetweenSignals > 0 {
		lim.Cooldown = time.Duration(d.MinMinutesBetweenSignals) * time.Minute
	}
	return lim
}

// Check evaluates symbol's strategies, LONG first, on the last candle with
// price as the live price. It returns the emitted signal, or nil and the
// reason of the first strategy that did not fire.
func (c *Checker) Check(symbol string, candles []types.Candle, price float64) (*types.Signal, Reason) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sig, reason := c.check(symbol, candles, price)
	if sig == nil {
		metrics.SignalsBlocked.WithLabelValues(string(reason)).Inc()
	}
	return sig, reason
}

func (c *Checker) check(symbol string, candles []types.Candle, price float64) (*types.Signal, Reason) {
	log := c.log.With(logger.String("symbol", symbol))

	assignments := c.bySymbol[symbol]
	if len(assignments) == 0 {
		return nil, ReasonNoStrategy
	}
	anyActive := false
	for _, a := range assignments {
		anyActive = anyActive || a.Active
	}
	if !anyActive {
		return nil, ReasonDisabled
	}
	if len(candles) < c.opts.WarmupBars {
		log.Debug("signal_blocked", logger.String("reason", string(ReasonInsufficientData)), logger.Int("bars", len(candles)))
		return nil, ReasonInsufficientData
	}
	if price <= 0 {
		price = candles[len(candles)-1].Close
	}

	now := c.clock.Now()
	if c.state.Rollover(now) {
		log.Info("daily_counters_reset", logger.Time("date", c.state.ResetDate))
		metrics.SignalsToday.Set(0)
	}
	f := indicator.NewLiveFrame(candles, price)
	last := f.Len() - 1

	var first Reason
	for _, a := range assignments {
		if !a.Active {
			continue
		}
		reason := c.state.Allow(symbol, now, c.limits(a.Def))
		if reason != ReasonEmitted {
			log.Debug("signal_blocked",
				logger.String("strategy", a.Def.ID),
				logger.String("reason", string(reason)),
				logger.Duration("cooldown_left", c.state.Remaining(symbol, now, c.limits(a.Def).Cooldown)))
			if first == "" {
				first = reason
			}
			continue
		}

		met, ok := c.evaluate(log, a, f, last)
		if !ok {
			if first == "" {
				first = ReasonConditionsNotMet
			}
			continue
		}

		sig := c.build(symbol, a, f, last, price, met, now)
		c.state.Record(symbol, now)
		c.last[symbol] = sig
		metrics.SignalsEmitted.WithLabelValues(symbol, string(sig.Direction)).Inc()
		metrics.SignalsToday.Set(float64(c.state.Total))
		log.Info("signal_emitted",
			logger.String("strategy", a.Def.ID),
			logger.String("direction", string(sig.Direction)),
			logger.Float64("entry", sig.EntryPrice))
		return sig, ReasonEmitted
	}
	return nil, first
}

// evaluate runs every condition of a and returns the descriptions of the
// ones met and whether all were met. A failing condition counts as unmet.
func (c *Checker) evaluate(log logger.Logger, a Assignment, f *indicator.Frame, i int) (met []string, all bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("condition_panic", logger.String("strategy", a.Def.ID), logger.Int("bar", i))
			metrics.ConditionErrors.WithLabelValues(string(a.Strategy.Category)).Inc()
			met, all = nil, false
		}
	}()
	outcomes := strategy.Explain(a.Strategy.Condition, f, i)
	met = make([]string, 0, len(outcomes))
	all = true
	for _, o := range outcomes {
		if o.Err != nil {
			log.Warn("condition_eval_failed",
				logger.String("strategy", a.Def.ID),
				logger.Int("bar", i),
				logger.Err(o.Err))
			metrics.ConditionErrors.WithLabelValues(string(a.Strategy.Category)).Inc()
		}
		if !o.Met {
			all = false
			continue
		}
		met = append(met, o.Description)
	}
	return met, all
}

func (c *Checker) build(symbol string, a Assignment, f *indicator.Frame, i int, price float64, met []string, now time.Time) *types.Signal {
	st := a.Strategy
	tp, sl := risk.Levels(st.Direction, price, st.TakeProfitPct, st.StopLossPct)
	return &types.Signal{
		ID:            uuid.NewString(),
		Symbol:        symbol,
		Direction:     st.Direction,
		StrategyID:    st.ID,
		StrategyName:  st.Name,
		EntryPrice:    price,
		StopLoss:      round6(sl),
		TakeProfit:    round6(tp),
		Confidence:    a.Def.AvgWinRate / 100,
		WinRate:       a.Def.AvgWinRate,
		ConditionsMet: met,
		Indicators: map[string]float64{
			"rsi_14":     f.RSI(14)[i],
			"ema_21":     f.EMA(21)[i],
			"ema_50":     f.EMA(50)[i],
			"stoch_k_14": f.StochK(14)[i],
		},
		IssuedAt:  now,
		ExpiresAt: now.Add(c.opts.SignalTTL),
	}
}

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// MarketData is the input for one symbol in a polling cycle.
type MarketData struct {
	Candles []types.Candle
	Price   float64
}

// CheckAll checks every symbol present in market that has assignments, in
// sorted symbol order, and returns the emitted signals.
func (c *Checker) CheckAll(market map[string]MarketData) []*types.Signal {
	var out []*types.Signal
	for _, sym := range sortedKeys(market) {
		if _, ok := c.bySymbol[sym]; !ok {
			continue
		}
		md := market[sym]
		if sig, _ := c.Check(sym, md.Candles, md.Price); sig != nil {
			out = append(out, sig)
		}
	}
	return out
}

// LastSignal returns the most recent signal emitted for symbol.
func (c *Checker) LastSignal(symbol string) (*types.Signal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.last[symbol]
	return s, ok
}

// Status summarises the checker for observability.
type Status struct {
	SignalsToday map[string]int       `json:"signals_today"`
	TotalToday   int                  `json:"total_today"`
	LastSignals  map[string]time.Time `json:"last_signals"`
	ResetDate    time.Time            `json:"reset_date"`
	Active       int                  `json:"active_strategies"`
	Long         int                  `json:"long_strategies"`
	Short        int                  `json:"short_strategies"`
}

func (c *Checker) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Rollover(c.clock.Now()) {
		metrics.SignalsToday.Set(0)
	}
	snap := c.state.Clone()
	st := Status{
		SignalsToday: snap.Today,
		TotalToday:   snap.Total,
		LastSignals:  snap.LastSignal,
		ResetDate:    snap.ResetDate,
	}
	for _, as := range c.bySymbol {
		for _, a := range as {
			if !a.Active {
				continue
			}
			st.Active++
			if a.Strategy.Direction == types.Long {
				st.Long++
			} else {
				st.Short++
			}
		}
	}
	return st
}

// State returns a copy of the throttle state, e.g. for persistence.
func (c *Checker) State() *ThrottleState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}
