package backtest

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/metrics"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/testutils"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

func atBar(n int) strategy.Condition {
	return strategy.When("at bar", func(_ *indicator.Frame, i int) bool { return i == n })
}

func build(t *testing.T, dir types.Direction, cond strategy.Condition, tp, sl float64) *strategy.Strategy {
	t.Helper()
	s := &strategy.Strategy{ID: "test", Name: "test", Direction: dir, Condition: cond, TakeProfitPct: tp, StopLossPct: sl}
	if err := s.Validate(); err != nil {
		t.Fatalf("invalid strategy: %v", err)
	}
	return s
}

// wavy is a deterministic non-trivial series.
func wavy(n int) []types.Candle {
	closes := make([]float64, n)
	for i := range closes {
		x := float64(i)
		closes[i] = 100 + 5*math.Sin(x/7) + 3*math.Sin(x/3.1) + 0.01*x
	}
	return testutils.Series(closes...)
}

/*
-----------------------------------------------------------------------
Tie-break – one bar crosses both TP and SL.
-----------------------------------------------------------------------
Entry at bar 60 (price 100, TP 101, SL 99). Bar 61 spans 98..102, so
both levels are touched; the stop wins.
*/
func TestTieBreakStopLossWins(t *testing.T) {
	for _, dir := range []types.Direction{types.Long, types.Short} {
		candles := testutils.Flat(120, 100)
		candles[61].High, candles[61].Low = 102, 98

		res := New(DefaultOptions(), nil).Simulate(candles, build(t, dir, atBar(60), 1, 1))
		if len(res.Trades) != 1 {
			t.Fatalf("%s: expected 1 trade, got %d", dir, len(res.Trades))
		}
		tr := res.Trades[0]
		if tr.ExitReason != types.ExitSL || tr.ExitIndex != 61 {
			t.Fatalf("%s: expected SL at bar 61, got %s at %d", dir, tr.ExitReason, tr.ExitIndex)
		}
		if tr.ExitPrice != tr.StopLoss || tr.PnLPercent >= 0 {
			t.Fatalf("%s: expected loss at stop price, got %+v", dir, tr)
		}
	}
}

/*
-----------------------------------------------------------------------
Timeout – price never reaches TP or SL.
-----------------------------------------------------------------------
*/
func TestTimeoutExitsAtMaxHoldClose(t *testing.T) {
	candles := testutils.Flat(200, 100)
	candles[80].Close = 100.2 // still inside the 1 % band
	opts := DefaultOptions()
	opts.MaxHoldBars = 20

	res := New(opts, nil).Simulate(candles, build(t, types.Long, atBar(60), 1, 1))
	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != types.ExitTimeout {
		t.Fatalf("expected TIMEOUT, got %s", tr.ExitReason)
	}
	if tr.ExitIndex != 80 || tr.ExitPrice != 100.2 {
		t.Fatalf("expected exit at bar 80 close 100.2, got bar %d price %v", tr.ExitIndex, tr.ExitPrice)
	}
	if tr.BarsHeld() != 20 {
		t.Fatalf("expected 20 bars held, got %d", tr.BarsHeld())
	}
}

/*
-----------------------------------------------------------------------
Warm-up and re-entry.
-----------------------------------------------------------------------
An always-true condition on a flat series: first entry at the warm-up
floor, timeout after 100 bars, re-entry on the bar after the exit. The
position still open at the end of data is not reported.
*/
func TestWarmupAndReentry(t *testing.T) {
	always := strategy.When("always", func(*indicator.Frame, int) bool { return true })
	res := New(DefaultOptions(), nil).Simulate(testutils.Flat(300, 100), build(t, types.Long, always, 1, 1))

	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 closed trades, got %d", len(res.Trades))
	}
	if res.Trades[0].EntryIndex != 50 || res.Trades[0].ExitIndex != 150 {
		t.Fatalf("unexpected first trade %+v", res.Trades[0])
	}
	if res.Trades[1].EntryIndex != 151 {
		t.Fatalf("expected re-entry at 151, got %d", res.Trades[1].EntryIndex)
	}
	if res.Stats.Breakeven != 2 || res.Stats.WinRate != 0 || res.Stats.ProfitFactor != 0 {
		t.Fatalf("unexpected stats %+v", res.Stats)
	}
}

/*
-----------------------------------------------------------------------
End-to-end – RSI dip at bar 80.
-----------------------------------------------------------------------
RSI(14) < 30 holds on bars 80..93. With wide TP/SL the single trade
times out at bar 180 and no further entry happens.
*/
func TestRSIDipEndToEnd(t *testing.T) {
	cond, err := strategy.Rule{Indicator: "rsi", Period: 14, Operator: "<", Value: 30}.Compile()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	res := New(DefaultOptions(), nil).Simulate(testutils.RSIDip(), build(t, types.Long, cond, 5, 5))

	if len(res.Trades) != 1 {
		t.Fatalf("expected exactly one trade, got %d: %+v", len(res.Trades), res.Trades)
	}
	tr := res.Trades[0]
	if tr.EntryIndex != 80 || tr.EntryPrice != 81 {
		t.Fatalf("expected entry at bar 80 @ 81, got %d @ %v", tr.EntryIndex, tr.EntryPrice)
	}
	if tr.ExitReason != types.ExitTimeout || tr.ExitIndex != 180 {
		t.Fatalf("expected TIMEOUT at 180, got %s at %d", tr.ExitReason, tr.ExitIndex)
	}
	if !(tr.StopLoss < tr.EntryPrice && tr.EntryPrice < tr.TakeProfit) {
		t.Fatalf("LONG levels out of order: %+v", tr)
	}
}

func TestShortSeriesIsInsufficient(t *testing.T) {
	always := strategy.When("always", func(*indicator.Frame, int) bool { return true })
	res := New(DefaultOptions(), nil).Simulate(testutils.Flat(99, 100), build(t, types.Long, always, 1, 1))
	if !res.InsufficientData || len(res.Trades) != 0 || res.Stats.TotalTrades != 0 {
		t.Fatalf("expected empty insufficient result, got %+v", res)
	}
}

/*
A condition that errors on every other bar is treated as false there and
the run carries on.
*/
func TestConditionErrorsAreAbsorbed(t *testing.T) {
	flaky := strategy.Func{Desc: "flaky", Fn: func(_ *indicator.Frame, i int) (bool, error) {
		if i%2 == 0 {
			return false, errors.New("no data")
		}
		return i == 61, nil
	}}
	log := testutils.NewMockLogger()
	res := New(DefaultOptions(), log).Simulate(testutils.Flat(200, 100), build(t, types.Long, flaky, 1, 1))
	if res.EvalErrors == 0 {
		t.Fatal("expected eval errors to be counted")
	}
	if len(res.Trades) != 1 || res.Trades[0].EntryIndex != 61 {
		t.Fatalf("expected one trade from bar 61, got %+v", res.Trades)
	}
	if log.Count("condition_eval_failed") != 1 {
		t.Fatalf("expected the first failure to be logged once, got %d", log.Count("condition_eval_failed"))
	}
}

func TestSimulateIsDeterministic(t *testing.T) {
	candles := wavy(500)
	st, _ := strategy.Default().Get("rsi_14_below_35")
	sim := New(DefaultOptions(), nil)
	a := sim.Simulate(candles, st)
	b := sim.Simulate(candles, st)
	if !reflect.DeepEqual(a.Trades, b.Trades) || a.Stats != b.Stats {
		t.Fatal("two runs over identical input differ")
	}
}

/*
-----------------------------------------------------------------------
Catalog-wide invariants.
-----------------------------------------------------------------------
*/
func TestCatalogInvariants(t *testing.T) {
	candles := wavy(600)
	sim := New(DefaultOptions(), nil)
	runner := NewRunner(sim, 4, 0, nil)
	results, err := runner.RunAll(context.Background(), "TEST", candles, strategy.Default().All())
	if err != nil {
		t.Fatalf("run all: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected some strategies to trade on the wavy series")
	}
	for _, res := range results {
		s := res.Stats
		if s.Wins+s.Losses+s.Breakeven != s.TotalTrades {
			t.Fatalf("%s: outcome counts do not add up: %+v", res.StrategyID, s)
		}
		for _, tr := range res.Trades {
			if tr.EntryIndex < 50 {
				t.Fatalf("%s: entry %d before warm-up", res.StrategyID, tr.EntryIndex)
			}
			if !(tr.EntryIndex < tr.ExitIndex && tr.ExitIndex <= tr.EntryIndex+100) {
				t.Fatalf("%s: bad exit window %+v", res.StrategyID, tr)
			}
			long := tr.StopLoss < tr.EntryPrice && tr.EntryPrice < tr.TakeProfit
			short := tr.TakeProfit < tr.EntryPrice && tr.EntryPrice < tr.StopLoss
			if (tr.Direction == types.Long && !long) || (tr.Direction == types.Short && !short) {
				t.Fatalf("%s: levels out of order %+v", res.StrategyID, tr)
			}
		}
	}
	for i := 1; i < len(results); i++ {
		if results[i].Stats.WinRate > results[i-1].Stats.WinRate {
			t.Fatal("results not sorted by win rate")
		}
	}
}

func TestRunAllReturnsResults(t *testing.T) {
	st := build(t, types.Long, atBar(60), 1, 1)
	runner := NewRunner(New(DefaultOptions(), nil), 2, 0, nil)
	results, err := runner.RunAll(context.Background(), "X", testutils.Flat(200, 100), []*strategy.Strategy{st})
	if err != nil {
		t.Fatalf("run all on a live context: %v", err)
	}
	if len(results) != 1 || results[0].Symbol != "X" || results[0].Stats.TotalTrades != 1 {
		t.Fatalf("expected one result with one trade, got %+v", results)
	}
}

/*
-----------------------------------------------------------------------
Condition errors are counted per category, not per strategy id.
-----------------------------------------------------------------------
*/
func TestConditionErrorsLabelledByCategory(t *testing.T) {
	failing := strategy.Func{Desc: "failing", Fn: func(_ *indicator.Frame, i int) (bool, error) {
		return false, errors.New("no data")
	}}
	st := build(t, types.Long, failing, 1, 1)
	st.ID = "failing_variant_1"
	st.Category = strategy.CategoryCombined

	before := testutil.ToFloat64(metrics.ConditionErrors.WithLabelValues(string(strategy.CategoryCombined)))
	res := New(DefaultOptions(), nil).Simulate(testutils.Flat(120, 100), st)
	after := testutil.ToFloat64(metrics.ConditionErrors.WithLabelValues(string(strategy.CategoryCombined)))
	if res.EvalErrors != 70 || after-before != 70 {
		t.Fatalf("expected 70 errors under the category label, got res=%d metric=%v", res.EvalErrors, after-before)
	}
}

func TestRunAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	runner := NewRunner(New(DefaultOptions(), nil), 2, 0, nil)
	if _, err := runner.RunAll(ctx, "X", wavy(200), strategy.Default().All()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestComputeStats(t *testing.T) {
	t0 := testutils.Epoch
	mk := func(pnl float64, entry, exit time.Duration) types.Trade {
		return types.Trade{PnLPercent: pnl, EntryTime: t0.Add(entry), ExitTime: t0.Add(exit)}
	}
	trades := []types.Trade{
		mk(1, 0, time.Hour),
		mk(-2, 2*time.Hour, 3*time.Hour),
		mk(0, 4*time.Hour, 5*time.Hour),
		mk(3, 6*time.Hour, 48*time.Hour),
	}
	s := ComputeStats(trades)
	if s.Wins != 2 || s.Losses != 1 || s.Breakeven != 1 || s.WinRate != 50 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if s.TotalPnLPercent != 2 || s.AvgPnLPercent != 0.5 {
		t.Fatalf("unexpected pnl %+v", s)
	}
	if s.ProfitFactor != 2 {
		t.Fatalf("expected profit factor 2, got %v", s.ProfitFactor)
	}
	if s.MaxDrawdown != 2 {
		t.Fatalf("expected drawdown 2, got %v", s.MaxDrawdown)
	}
	if s.TradesPerDay != 2 {
		t.Fatalf("expected 2 trades/day over a two-day span, got %v", s.TradesPerDay)
	}

	if pf := ComputeStats([]types.Trade{mk(1, 0, time.Hour), mk(2, 0, time.Hour)}).ProfitFactor; pf != 3 {
		t.Fatalf("without losses profit factor is gross win, got %v", pf)
	}
	if s := ComputeStats(nil); s != (types.StrategyStats{}) {
		t.Fatalf("empty trades must give zero stats, got %+v", s)
	}
	// opening loss counts against a zero peak
	if dd := ComputeStats([]types.Trade{mk(-1.5, 0, time.Hour)}).MaxDrawdown; dd != 1.5 {
		t.Fatalf("expected drawdown 1.5, got %v", dd)
	}
}

func TestFindBest(t *testing.T) {
	results := []Result{
		{StrategyID: "a", Stats: types.StrategyStats{TotalTrades: 10, WinRate: 70, ProfitFactor: 1}},
		{StrategyID: "b", Stats: types.StrategyStats{TotalTrades: 10, WinRate: 60, ProfitFactor: 3}},
		{StrategyID: "c", Stats: types.StrategyStats{TotalTrades: 2, WinRate: 90, ProfitFactor: 5}},
		{StrategyID: "d", Stats: types.StrategyStats{TotalTrades: 10, WinRate: 40, ProfitFactor: 9}},
	}
	best := FindBest(results, 55, 5, 0)
	if len(best) != 2 || best[0].StrategyID != "b" || best[1].StrategyID != "a" {
		t.Fatalf("unexpected ranking %v", best)
	}
	if top := FindBest(results, 0, 0, 1); len(top) != 1 || top[0].StrategyID != "d" {
		t.Fatalf("unexpected top-1 %v", top)
	}
}
