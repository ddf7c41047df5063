// Package report renders backtest and optimizer results as JSON documents
// and terminal tables.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bytedance/sonic"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/backtest"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/optimizer"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Row is one strategy line of a backtest report.
type Row struct {
	StrategyID string              `json:"strategy_id"`
	Name       string              `json:"name"`
	Category   string              `json:"category"`
	Direction  types.Direction     `json:"direction"`
	Stats      types.StrategyStats `json:"stats"`
}

// Backtest is the report of a RunAll over one symbol.
type Backtest struct {
	Symbol      string    `json:"symbol"`
	GeneratedAt time.Time `json:"generated_at"`
	Bars        int       `json:"bars"`
	Tested      int       `json:"tested"`
	Rows        []Row     `json:"results"`
	Best        *Row      `json:"best,omitempty"`
}

// BuildBacktest summarises results, already ordered by the runner. Best is
// the top scorer that meets minWinRate and minTrades.
func BuildBacktest(symbol string, bars, tested int, results []backtest.Result, minWinRate float64, minTrades int, now time.Time) *Backtest {
	rep := &Backtest{Symbol: symbol, GeneratedAt: now.UTC(), Bars: bars, Tested: tested, Rows: make([]Row, 0, len(results))}
	for i := range results {
		rep.Rows = append(rep.Rows, rowOf(&results[i]))
	}
	if best := backtest.FindBest(results, minWinRate, minTrades, 1); len(best) > 0 {
		row := rowOf(&best[0])
		rep.Best = &row
	}
	return rep
}

func rowOf(r *backtest.Result) Row {
	row := Row{StrategyID: r.StrategyID, Stats: r.Stats}
	if s := r.Strategy; s != nil {
		row.Name, row.Category, row.Direction = s.Name, string(s.Category), s.Direction
	}
	return row
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return errors.Wrap(err, "write report")
}

// WriteTable prints the top rows of rep, limit <= 0 prints all.
func WriteTable(w io.Writer, rep *Backtest, limit int) {
	fmt.Fprintf(w, "%s: %d strategies over %d bars, %d with trades\n", rep.Symbol, rep.Tested, rep.Bars, len(rep.Rows))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Strategy", "Dir", "Trades", "Win %", "PnL %", "PF", "Max DD %", "Per day"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for i, row := range rep.Rows {
		if limit > 0 && i >= limit {
			break
		}
		st := row.Stats
		table.Append([]string{
			fmt.Sprintf("%d", i+1),
			row.StrategyID,
			string(row.Direction),
			fmt.Sprintf("%d", st.TotalTrades),
			fmt.Sprintf("%.1f", st.WinRate),
			fmt.Sprintf("%+.2f", st.TotalPnLPercent),
			fmt.Sprintf("%.2f", st.ProfitFactor),
			fmt.Sprintf("%.2f", st.MaxDrawdown),
			fmt.Sprintf("%.2f", st.TradesPerDay),
		})
	}
	table.Render()
	if rep.Best != nil {
		fmt.Fprintf(w, "best: %s (win %.1f%%, pnl %+.2f%%)\n", rep.Best.StrategyID, rep.Best.Stats.WinRate, rep.Best.Stats.TotalPnLPercent)
	}
}

// WriteOptimizerTable prints the winning combination of each symbol.
func WriteOptimizerTable(w io.Writer, best map[string]*optimizer.Best) {
	symbols := make([]string, 0, len(best))
	for sym := range best {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Symbol", "Strategy", "Dir", "TP %", "SL %", "Trades", "Win %", "PnL %", "Score", "Survivors"})
	table.SetAlignment(tablewriter.ALIGN_CENTER)
	for _, sym := range symbols {
		b := best[sym]
		if b == nil {
			table.Append([]string{sym, "-", "-", "-", "-", "-", "-", "-", "-", "0"})
			continue
		}
		table.Append([]string{
			sym,
			b.StrategyID,
			string(b.Direction),
			fmt.Sprintf("%.1f", b.TakeProfitPct),
			fmt.Sprintf("%.1f", b.StopLossPct),
			fmt.Sprintf("%d", b.Stats.TotalTrades),
			fmt.Sprintf("%.1f", b.Stats.WinRate),
			fmt.Sprintf("%+.2f", b.Stats.TotalPnLPercent),
			fmt.Sprintf("%.2f", b.Score),
			fmt.Sprintf("%d", b.Survivors),
		})
	}
	table.Render()
}
