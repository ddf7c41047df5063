package backtest

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Runner simulates many strategies over one series in parallel.
type Runner struct {
	Sim       *Simulator
	Workers   int
	MinTrades int
	Log       logger.Logger
}

func NewRunner(sim *Simulator, workers, minTrades int, log logger.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{Sim: sim, Workers: workers, MinTrades: minTrades, Log: log}
}

// RunAll runs every strategy over candles and returns the results with at
// least MinTrades trades, best win rate first. Indicator columns are shared
// across strategies. A cancelled context stops scheduling new strategies
// and returns ctx.Err().
func (r *Runner) RunAll(ctx context.Context, symbol string, candles []types.Candle, strategies []*strategy.Strategy) ([]Result, error) {
	f := indicator.NewFrame(candles)
	slots := make([]Result, len(strategies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Workers)
	for i, st := range strategies {
		if gctx.Err() != nil {
			break
		}
		i, st := i, st
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := r.Sim.SimulateFrame(f, st)
			res.Symbol = symbol
			slots[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(slots))
	for _, res := range slots {
		if res.Stats.TotalTrades >= r.MinTrades && res.Stats.TotalTrades > 0 {
			out = append(out, res)
		}
	}
	SortByWinRate(out)
	r.Log.Info("backtest_batch_done",
		logger.String("symbol", symbol),
		logger.Int("strategies", len(strategies)),
		logger.Int("qualified", len(out)))
	return out, nil
}

// SortByWinRate orders by win rate, then total pnl, then strategy id.
func SortByWinRate(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Stats, results[j].Stats
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.TotalPnLPercent != b.TotalPnLPercent {
			return a.TotalPnLPercent > b.TotalPnLPercent
		}
		return results[i].StrategyID < results[j].StrategyID
	})
}

// Score is the composite ranking used to pick the best strategies:
// win rate weighted 0.7 plus profit factor weighted 10.
func Score(s types.StrategyStats) float64 {
	return s.WinRate*0.7 + s.ProfitFactor*10
}

// FindBest keeps results with win rate >= minWinRate and at least
// minTrades trades, and returns the topN by Score.
func FindBest(results []Result, minWinRate float64, minTrades, topN int) []Result {
	var out []Result
	for _, res := range results {
		if res.Stats.WinRate >= minWinRate && res.Stats.TotalTrades >= minTrades {
			out = append(out, res)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := Score(out[i].Stats), Score(out[j].Stats)
		if si != sj {
			return si > sj
		}
		if out[i].Stats.TotalPnLPercent != out[j].Stats.TotalPnLPercent {
			return out[i].Stats.TotalPnLPercent > out[j].Stats.TotalPnLPercent
		}
		return out[i].StrategyID < out[j].StrategyID
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
