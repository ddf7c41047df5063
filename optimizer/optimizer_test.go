package optimizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/backtest"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/testutils"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// enterAt enters LONG on a single bar given by the "bar" parameter.
var enterAt = &strategy.Template{
	Name: "ENTER_AT", Category: strategy.CategoryPattern, Direction: types.Long,
	ID: func(p strategy.Params) string { return fmt.Sprintf("at_%d", p.Int("bar")) },
	Build: func(p strategy.Params) (strategy.Condition, error) {
		bar := p.Int("bar")
		return strategy.When("at bar", func(_ *indicator.Frame, i int) bool { return i == bar }), nil
	},
}

func newOptimizer() *Optimizer {
	return New(backtest.New(backtest.DefaultOptions(), nil), 3, nil)
}

func TestDefaultGrid(t *testing.T) {
	vs := DefaultVariants()
	if len(vs) != 20 {
		t.Fatalf("expected 20 variants, got %d", len(vs))
	}
	seen := map[string]bool{}
	for _, v := range vs {
		if seen[v.ID()] {
			t.Fatalf("duplicate variant %s", v.ID())
		}
		seen[v.ID()] = true
		if _, err := v.Instantiate(0.3, 0.5); err != nil {
			t.Fatalf("%s: %v", v.ID(), err)
		}
	}
	if len(DefaultTPSL()) != 4 {
		t.Fatalf("expected 4 TP/SL pairs")
	}
}

/*
-----------------------------------------------------------------------
Ranking.
-----------------------------------------------------------------------
On DIP the bar-70 spike takes profit for entries at 60 and 61 with a 1 %
target; entries at 75 and every 3 % target time out flat. The two
winners tie on score and pnl, so the lower id wins. FLAT never trades
profitably and is absent from the result.
*/
func TestOptimizePicksBestPerSymbol(t *testing.T) {
	dip := testutils.Flat(200, 100)
	dip[70].High = 102
	data := map[string][]types.Candle{"DIP": dip, "FLAT": testutils.Flat(200, 100)}

	variants := enterAt.Expand(strategy.Grid{"bar": {75, 61, 60}})
	tpsl := []TPSL{{TakeProfitPct: 3, StopLossPct: 1}, {TakeProfitPct: 1, StopLossPct: 1}}

	best, err := newOptimizer().Optimize(context.Background(), data, variants, tpsl, 1, 50)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if _, ok := best["FLAT"]; ok {
		t.Fatal("FLAT should have no survivor")
	}
	b, ok := best["DIP"]
	if !ok {
		t.Fatal("DIP should have a survivor")
	}
	if b.StrategyID != "at_60" || b.TakeProfitPct != 1 {
		t.Fatalf("unexpected winner %+v", b)
	}
	if b.Survivors != 2 {
		t.Fatalf("expected 2 survivors, got %d", b.Survivors)
	}
	if b.Score != backtest.Score(b.Stats) || b.Stats.WinRate != 100 {
		t.Fatalf("unexpected stats %+v score %v", b.Stats, b.Score)
	}
}

func TestOptimizeMinTradesFloor(t *testing.T) {
	dip := testutils.Flat(200, 100)
	dip[70].High = 102
	variants := enterAt.Expand(strategy.Grid{"bar": {60}})
	best, err := newOptimizer().Optimize(context.Background(), map[string][]types.Candle{"DIP": dip},
		variants, []TPSL{{TakeProfitPct: 1, StopLossPct: 1}}, 2, 0)
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if len(best) != 0 {
		t.Fatalf("one trade is below the floor of two, got %+v", best)
	}
}

func TestOptimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newOptimizer().Optimize(ctx, map[string][]types.Candle{"X": testutils.RSIDip()},
		DefaultVariants(), DefaultTPSL(), 1, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestOptimizeRejectsBadVariant(t *testing.T) {
	bad := strategy.DoubleBottom.With(strategy.Params{"lookback": 1})
	_, err := newOptimizer().Optimize(context.Background(), map[string][]types.Candle{"X": testutils.RSIDip()},
		[]strategy.Variant{bad}, DefaultTPSL(), 1, 0)
	if !errors.Is(err, strategy.ErrInvalidDefinition) {
		t.Fatalf("expected ErrInvalidDefinition, got %v", err)
	}
}
