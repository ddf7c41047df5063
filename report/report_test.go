package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/backtest"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/optimizer"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

func sampleResults() []backtest.Result {
	st := &strategy.Strategy{ID: "rsi_14_below_30", Name: "RSI(14) < 30", Category: "RSI", Direction: types.Long}
	return []backtest.Result{
		{StrategyID: "rsi_14_below_30", Strategy: st,
			Stats: types.StrategyStats{TotalTrades: 60, Wins: 42, Losses: 18, WinRate: 70, TotalPnLPercent: 12.5, ProfitFactor: 1.8}},
		{StrategyID: "weak", Stats: types.StrategyStats{TotalTrades: 10, Wins: 5, Losses: 5, WinRate: 50, ProfitFactor: 1}},
	}
}

func TestBuildBacktestPicksBest(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rep := BuildBacktest("BTC", 1000, 140, sampleResults(), 60, 50, now)
	if len(rep.Rows) != 2 || rep.Rows[0].Category != "RSI" || rep.Rows[0].Direction != types.Long {
		t.Fatalf("unexpected rows %+v", rep.Rows)
	}
	if rep.Best == nil || rep.Best.StrategyID != "rsi_14_below_30" {
		t.Fatalf("unexpected best %+v", rep.Best)
	}

	if none := BuildBacktest("BTC", 1000, 140, sampleResults(), 90, 50, now); none.Best != nil {
		t.Fatalf("nothing meets a 90%% floor, got %+v", none.Best)
	}
}

func TestWriteJSON(t *testing.T) {
	rep := BuildBacktest("BTC", 1000, 140, sampleResults(), 60, 50, time.Unix(0, 0))
	var buf bytes.Buffer
	if err := WriteJSON(&buf, rep); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var back Backtest
	if err := sonic.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Symbol != "BTC" || back.Tested != 140 || back.Rows[0].Stats.WinRate != 70 {
		t.Fatalf("unexpected decoded report %+v", back)
	}
}

func TestWriteTables(t *testing.T) {
	var buf bytes.Buffer
	WriteTable(&buf, BuildBacktest("BTC", 1000, 140, sampleResults(), 60, 50, time.Unix(0, 0)), 1)
	out := buf.String()
	if !strings.Contains(out, "rsi_14_below_30") || strings.Contains(out, "weak") {
		t.Fatalf("table should list only the top row:\n%s", out)
	}
	if !strings.Contains(out, "best: rsi_14_below_30") {
		t.Fatalf("missing best line:\n%s", out)
	}

	buf.Reset()
	WriteOptimizerTable(&buf, map[string]*optimizer.Best{
		"ETH": nil,
		"BTC": {StrategyID: "rsi_oversold_14_30_ema_21", Direction: types.Long, TakeProfitPct: 1, StopLossPct: 1, Survivors: 3},
	})
	out = buf.String()
	if strings.Index(out, "BTC") > strings.Index(out, "ETH") {
		t.Fatalf("symbols should be sorted:\n%s", out)
	}
}
