package backtest

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// ComputeStats aggregates closed trades in chronological order.
func ComputeStats(trades []types.Trade) types.StrategyStats {
	var st types.StrategyStats
	st.TotalTrades = len(trades)
	if st.TotalTrades == 0 {
		return st
	}

	pnl := make(stats.Float64Data, len(trades))
	var grossWin, grossLoss float64
	for i, t := range trades {
		pnl[i] = t.PnLPercent
		switch {
		case t.PnLPercent > 0:
			st.Wins++
			grossWin += t.PnLPercent
		case t.PnLPercent < 0:
			st.Losses++
			grossLoss += t.PnLPercent
		default:
			st.Breakeven++
		}
	}

	st.WinRate = float64(st.Wins) / float64(st.TotalTrades) * 100
	st.TotalPnLPercent, _ = pnl.Sum()
	st.AvgPnLPercent, _ = pnl.Mean()
	st.ProfitFactor = profitFactor(grossWin, grossLoss)
	st.MaxDrawdown = maxDrawdown(pnl)

	span := trades[len(trades)-1].ExitTime.Sub(trades[0].EntryTime)
	days := math.Max(span.Hours()/24, 1)
	st.TradesPerDay = float64(st.TotalTrades) / days
	return st
}

// profitFactor is gross win over |gross loss|. Without losses the gross win
// itself is reported.
func profitFactor(grossWin, grossLoss float64) float64 {
	if grossLoss == 0 {
		return grossWin
	}
	return grossWin / math.Abs(grossLoss)
}

// maxDrawdown is the largest peak-to-trough drop of the cumulative pnl
// curve. The peak starts at zero, so an opening loss counts.
func maxDrawdown(pnl []float64) float64 {
	var cum, peak, dd float64
	for _, p := range pnl {
		cum += p
		peak = math.Max(peak, cum)
		dd = math.Max(dd, peak-cum)
	}
	return dd
}

// SpanDays is the number of days covered by candles, never below one.
func SpanDays(candles []types.Candle) float64 {
	if len(candles) < 2 {
		return 1
	}
	d := candles[len(candles)-1].Timestamp.Sub(candles[0].Timestamp)
	return math.Max(float64(d)/float64(24*time.Hour), 1)
}
