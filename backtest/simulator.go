package backtest

import (
	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/metrics"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/risk"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Options controls the simulation window.
type Options struct {
	// WarmupBars is the first bar at which an entry may be considered.
	WarmupBars int `mapstructure:"warmup_bars" yaml:"warmup_bars"`
	// MaxHoldBars closes a position at the bar close once it has been held
	// this many bars without hitting TP or SL.
	MaxHoldBars int `mapstructure:"max_hold_bars" yaml:"max_hold_bars"`
	// MinBars is the shortest series that is simulated at all.
	MinBars int `mapstructure:"min_bars" yaml:"min_bars"`
}

// DefaultOptions returns warm-up 50, max hold 100, min bars 100.
func DefaultOptions() Options {
	return Options{WarmupBars: 50, MaxHoldBars: 100, MinBars: 100}
}

// Result is the outcome of one strategy over one series.
type Result struct {
	Symbol     string              `json:"symbol,omitempty"`
	StrategyID string              `json:"strategy_id"`
	Strategy   *strategy.Strategy  `json:"-"`
	Trades     []types.Trade       `json:"trades"`
	Stats      types.StrategyStats `json:"stats"`
	// InsufficientData is set when the series was shorter than MinBars.
	InsufficientData bool `json:"insufficient_data,omitempty"`
	// EvalErrors counts bars whose condition failed and was treated as false.
	EvalErrors int `json:"eval_errors,omitempty"`
}

// Simulator replays a strategy bar by bar. It holds no per-run state and
// is safe for concurrent use.
type Simulator struct {
	opts Options
	log  logger.Logger
}

// New builds a simulator. Non-positive options fall back to the defaults.
func New(opts Options, log logger.Logger) *Simulator {
	def := DefaultOptions()
	if opts.WarmupBars <= 0 {
		opts.WarmupBars = def.WarmupBars
	}
	if opts.MaxHoldBars <= 0 {
		opts.MaxHoldBars = def.MaxHoldBars
	}
	if opts.MinBars <= 0 {
		opts.MinBars = def.MinBars
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Simulator{opts: opts, log: log}
}

func (s *Simulator) Options() Options { return s.opts }

// Simulate annotates candles and runs s over them.
func (s *Simulator) Simulate(candles []types.Candle, st *strategy.Strategy) Result {
	return s.SimulateFrame(indicator.NewFrame(candles), st)
}

// SimulateFrame runs st over an already annotated frame, so that many
// strategies can share one set of indicator columns.
func (s *Simulator) SimulateFrame(f *indicator.Frame, st *strategy.Strategy) Result {
	res := Result{StrategyID: st.ID, Strategy: st, Trades: []types.Trade{}}
	metrics.BacktestRuns.WithLabelValues(string(st.Category)).Inc()

	n := f.Len()
	if n < s.opts.MinBars {
		res.InsufficientData = true
		return res
	}
	log := s.log.With(logger.String("strategy", st.ID))

	var (
		open  bool
		trade types.Trade
	)
	for i := s.opts.WarmupBars; i < n; i++ {
		bar := f.Candle(i)

		if !open {
			// 1️⃣ Searching: entry at this bar's close.
			ok, err := st.Evaluate(f, i)
			if err != nil {
				res.EvalErrors++
				metrics.ConditionErrors.WithLabelValues(string(st.Category)).Inc()
				if res.EvalErrors == 1 {
					log.Warn("condition_eval_failed", logger.Int("bar", i), logger.Err(err))
				}
				continue
			}
			if !ok {
				continue
			}
			tp, sl := risk.Levels(st.Direction, bar.Close, st.TakeProfitPct, st.StopLossPct)
			trade = types.Trade{
				EntryIndex: i,
				EntryTime:  bar.Timestamp,
				EntryPrice: bar.Close,
				Direction:  st.Direction,
				TakeProfit: tp,
				StopLoss:   sl,
			}
			open = true
			continue
		}

		// 2️⃣ In position: SL is checked last so it wins a same-bar tie.
		var (
			exit   float64
			reason types.ExitReason
		)
		if risk.HitTakeProfit(trade.Direction, bar.High, bar.Low, trade.TakeProfit) {
			exit, reason = trade.TakeProfit, types.ExitTP
		}
		if risk.HitStopLoss(trade.Direction, bar.High, bar.Low, trade.StopLoss) {
			exit, reason = trade.StopLoss, types.ExitSL
		}
		if reason == "" && i-trade.EntryIndex >= s.opts.MaxHoldBars {
			exit, reason = bar.Close, types.ExitTimeout
		}
		if reason == "" {
			continue
		}

		// 3️⃣ Close and resume searching on the next bar.
		trade.ExitIndex = i
		trade.ExitTime = bar.Timestamp
		trade.ExitPrice = exit
		trade.ExitReason = reason
		trade.PnLPercent = risk.PnLPercent(trade.Direction, trade.EntryPrice, exit)
		res.Trades = append(res.Trades, trade)
		metrics.TradesClosed.WithLabelValues(string(reason)).Inc()
		open = false
	}

	if res.EvalErrors > 1 {
		log.Warn("condition_eval_errors", logger.Int("count", res.EvalErrors))
	}
	res.Stats = ComputeStats(res.Trades)
	return res
}
