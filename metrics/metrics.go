package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	BacktestRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoden_backtest_runs_total",
			Help: "Total number of single-strategy simulations (by category).",
		},
		[]string{"category"},
	)

	TradesClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoden_backtest_trades_total",
			Help: "Simulated trades closed, by exit reason.",
		},
		[]string{"reason"},
	)

	ConditionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoden_condition_errors_total",
			Help: "Condition evaluations that failed and were treated as false.",
		},
		[]string{"category"},
	)

	OptimizerCombinations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cryptoden_optimizer_combinations_total",
			Help: "Symbol x variant x TP/SL combinations simulated by the optimizer.",
		},
	)

	SignalsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoden_signals_emitted_total",
			Help: "Live signals emitted (by symbol and direction).",
		},
		[]string{"symbol", "direction"},
	)

	SignalsBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cryptoden_signals_blocked_total",
			Help: "Live checks that did not produce a signal, by reason.",
		},
		[]string{"reason"},
	)

	SignalsToday = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cryptoden_signals_today",
			Help: "Signals emitted since the last UTC midnight.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BacktestRuns, TradesClosed, ConditionErrors, OptimizerCombinations,
		SignalsEmitted, SignalsBlocked, SignalsToday,
	)
}
