package optimizer

import (
	"context"
	"runtime"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/backtest"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/metrics"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// TPSL is one take-profit / stop-loss pair, in percent.
type TPSL struct {
	TakeProfitPct float64 `mapstructure:"tp_percent" yaml:"tp_percent" json:"tp_percent"`
	StopLossPct   float64 `mapstructure:"sl_percent" yaml:"sl_percent" json:"sl_percent"`
}

// Best is the winning combination for one symbol.
type Best struct {
	Symbol        string              `json:"symbol"`
	StrategyID    string              `json:"strategy_id"`
	StrategyName  string              `json:"strategy_name"`
	Direction     types.Direction     `json:"direction"`
	Params        map[string]float64  `json:"params"`
	TakeProfitPct float64             `json:"tp_percent"`
	StopLossPct   float64             `json:"sl_percent"`
	Stats         types.StrategyStats `json:"stats"`
	Score         float64             `json:"score"`
	// Survivors is the number of combinations that met the trade and win
	// rate floors for this symbol.
	Survivors int `json:"survivors"`
}

// Optimizer sweeps template variants x TP/SL pairs with the simulator.
type Optimizer struct {
	sim     *backtest.Simulator
	workers int
	log     logger.Logger
}

func New(sim *backtest.Simulator, workers int, log logger.Logger) *Optimizer {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Optimizer{sim: sim, workers: workers, log: log}
}

type job struct {
	symbol string
	frame  *indicator.Frame
	st     *strategy.Strategy
}

// Optimize runs every (symbol, variant, TP/SL) combination and returns the
// best survivor per symbol. A combination survives with at least minTrades
// trades and a win rate of at least minWinRate; survivors are ranked by
// backtest.Score, then total pnl, then strategy id and TP/SL. Symbols with
// no survivor are absent from the result.
//
// Cancellation is checked between combinations; a cancelled sweep returns
// ctx.Err() and no partial result.
func (o *Optimizer) Optimize(ctx context.Context, candlesBySymbol map[string][]types.Candle,
	variants []strategy.Variant, tpsl []TPSL, minTrades int, minWinRate float64) (map[string]*Best, error) {

	// 1️⃣ Build every strategy up front so a bad variant fails fast.
	strategies := make([]*strategy.Strategy, 0, len(variants)*len(tpsl))
	for _, v := range variants {
		for _, r := range tpsl {
			st, err := v.Instantiate(r.TakeProfitPct, r.StopLossPct)
			if err != nil {
				return nil, errors.Wrapf(err, "variant %s tp=%g sl=%g", v.ID(), r.TakeProfitPct, r.StopLossPct)
			}
			strategies = append(strategies, st)
		}
	}

	symbols := make([]string, 0, len(candlesBySymbol))
	for s := range candlesBySymbol {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var jobs []job
	for _, sym := range symbols {
		f := indicator.NewFrame(candlesBySymbol[sym])
		for _, st := range strategies {
			jobs = append(jobs, job{symbol: sym, frame: f, st: st})
		}
	}
	o.log.Info("optimizer_start",
		logger.Int("symbols", len(symbols)),
		logger.Int("combinations", len(jobs)))

	// 2️⃣ One simulator run per combination.
	results := make([]backtest.Result, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range jobs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := o.sim.SimulateFrame(jobs[i].frame, jobs[i].st)
			res.Symbol = jobs[i].symbol
			results[i] = res
			metrics.OptimizerCombinations.Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3️⃣ Rank survivors per symbol.
	best := make(map[string]*Best)
	for _, res := range results {
		if res.Stats.TotalTrades == 0 || res.Stats.TotalTrades < minTrades || res.Stats.WinRate < minWinRate {
			continue
		}
		cand := toBest(res)
		cur, ok := best[res.Symbol]
		if !ok {
			cand.Survivors = 1
			best[res.Symbol] = cand
		} else {
			cand.Survivors = cur.Survivors + 1
			if better(cand, cur) {
				best[res.Symbol] = cand
			} else {
				cur.Survivors = cand.Survivors
			}
		}
	}

	for _, sym := range symbols {
		b, ok := best[sym]
		if !ok {
			o.log.Warn("optimizer_no_survivor", logger.String("symbol", sym))
			continue
		}
		o.log.Info("optimizer_best",
			logger.String("symbol", sym),
			logger.String("strategy", b.StrategyID),
			logger.Float64("win_rate", b.Stats.WinRate),
			logger.Float64("profit_factor", b.Stats.ProfitFactor),
			logger.Int("trades", b.Stats.TotalTrades))
	}
	return best, nil
}

func toBest(res backtest.Result) *Best {
	st := res.Strategy
	params := make(map[string]float64, len(st.Params))
	for k, v := range st.Params {
		params[k] = v
	}
	return &Best{
		Symbol:        res.Symbol,
		StrategyID:    st.ID,
		StrategyName:  st.Name,
		Direction:     st.Direction,
		Params:        params,
		TakeProfitPct: st.TakeProfitPct,
		StopLossPct:   st.StopLossPct,
		Stats:         res.Stats,
		Score:         backtest.Score(res.Stats),
	}
}

// better is a strict total order so the winner does not depend on
// scheduling.
func better(a, b *Best) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Stats.TotalPnLPercent != b.Stats.TotalPnLPercent {
		return a.Stats.TotalPnLPercent > b.Stats.TotalPnLPercent
	}
	if a.StrategyID != b.StrategyID {
		return a.StrategyID < b.StrategyID
	}
	if a.TakeProfitPct != b.TakeProfitPct {
		return a.TakeProfitPct < b.TakeProfitPct
	}
	return a.StopLossPct < b.StopLossPct
}
