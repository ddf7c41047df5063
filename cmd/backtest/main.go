// Command backtest runs the strategy catalog and the optimizer over
// historical candle files.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/backtest"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/config"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/marketdata"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/optimizer"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/report"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

var rootCmd = &cobra.Command{
	Use:           "backtest",
	Short:         "Backtest and optimize CryptoDen strategies on historical candles",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run --symbol BTC [--file candles.csv]",
	Short: "Run the strategy catalog over one symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		symbol, _ := cmd.Flags().GetString("symbol")
		file, _ := cmd.Flags().GetString("file")
		category, _ := cmd.Flags().GetString("category")
		direction, _ := cmd.Flags().GetString("direction")
		jsonOut, _ := cmd.Flags().GetString("json")
		symbol = strings.ToUpper(symbol)

		var candles []types.Candle
		if file != "" {
			candles, err = marketdata.Load(file)
		} else {
			candles, err = marketdata.DirSource{Dir: cfg.DataDir}.Candles(symbol)
		}
		if err != nil {
			return err
		}

		reg := strategy.Default()
		if cfg.BookPath != "" {
			book, err := strategy.LoadBookFile(cfg.BookPath)
			if err != nil {
				return err
			}
			if err := book.Register(reg); err != nil {
				return err
			}
		}
		strategies, err := selectStrategies(reg, category, direction)
		if err != nil {
			return err
		}

		sim := backtest.New(cfg.Backtest, log)
		runner := backtest.NewRunner(sim, cfg.Runner.Workers, cfg.Runner.MinTrades, log)
		results, err := runner.RunAll(cmd.Context(), symbol, candles, strategies)
		if err != nil {
			return err
		}

		rep := report.BuildBacktest(symbol, len(candles), len(strategies), results, cfg.Runner.MinWinRate, cfg.Runner.MinTrades, time.Now())
		report.WriteTable(cmd.OutOrStdout(), rep, cfg.Runner.Top)
		return writeJSON(jsonOut, rep)
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize [--symbols BTC,ETH]",
	Short: "Sweep template parameters and TP/SL pairs per symbol",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync(log)

		symbols, _ := cmd.Flags().GetStringSlice("symbols")
		jsonOut, _ := cmd.Flags().GetString("json")
		if len(symbols) == 0 {
			symbols = cfg.Optimizer.Symbols
		}
		for i := range symbols {
			symbols[i] = strings.ToUpper(symbols[i])
		}

		data, err := marketdata.LoadDir(cfg.DataDir, symbols)
		if err != nil {
			return err
		}
		opt := optimizer.New(backtest.New(cfg.Backtest, log), cfg.Optimizer.Workers, log)
		best, err := opt.Optimize(cmd.Context(), data, optimizer.DefaultVariants(), cfg.Optimizer.TPSL,
			cfg.Optimizer.MinTrades, cfg.Optimizer.MinWinRate)
		if err != nil {
			return err
		}
		for _, sym := range symbols {
			if _, ok := best[sym]; !ok {
				best[sym] = nil
			}
		}
		report.WriteOptimizerTable(cmd.OutOrStdout(), best)
		return writeJSON(jsonOut, best)
	},
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies [--category RSI]",
	Short: "List the strategy catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		direction, _ := cmd.Flags().GetString("direction")
		reg := strategy.Default()
		list, err := selectStrategies(reg, category, direction)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		categories, counts := reg.Categories()
		fmt.Fprintf(w, "%d strategies\n", len(list))
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"ID", "Category", "Dir", "TP %", "SL %", "Name"})
		table.SetAlignment(tablewriter.ALIGN_LEFT)
		for _, s := range list {
			table.Append([]string{
				s.ID, string(s.Category), string(s.Direction),
				fmt.Sprintf("%.1f", s.TakeProfitPct), fmt.Sprintf("%.1f", s.StopLossPct), s.Name,
			})
		}
		table.Render()
		for _, c := range categories {
			fmt.Fprintf(w, "  %-12s %d\n", c, counts[c])
		}
		return nil
	},
}

// selectStrategies filters the registry by category and direction; empty
// filters match everything.
func selectStrategies(reg *strategy.Registry, category, direction string) ([]*strategy.Strategy, error) {
	var out []*strategy.Strategy
	for _, s := range reg.All() {
		if category != "" && !strings.EqualFold(string(s.Category), category) {
			continue
		}
		if direction != "" && !strings.EqualFold(string(s.Direction), direction) {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no strategy matches category=%q direction=%q", category, direction)
	}
	return out, nil
}

func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	log, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create logger")
	}
	return cfg, log, nil
}

func writeJSON(path string, v interface{}) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	defer f.Close()
	return report.WriteJSON(f, v)
}

func main() {
	rootCmd.PersistentFlags().String("config", "", "Path to the YAML config file.")
	rootCmd.PersistentFlags().String("log-level", "", "Override log.level (debug, info, warn, error).")

	runCmd.Flags().StringP("symbol", "s", "", "Symbol to backtest, e.g. BTC. This flag is required.")
	runCmd.Flags().StringP("file", "f", "", "Candle file (.csv or .json); defaults to <data_dir>/<SYMBOL>.csv.")
	runCmd.Flags().String("category", "", "Only run strategies of this category.")
	runCmd.Flags().String("direction", "", "Only run LONG or SHORT strategies.")
	runCmd.Flags().String("json", "", "Also write the report as JSON to this path.")
	_ = runCmd.MarkFlagRequired("symbol")

	optimizeCmd.Flags().StringSlice("symbols", nil, "Symbols to optimize; defaults to optimizer.symbols.")
	optimizeCmd.Flags().String("json", "", "Also write the winners as JSON to this path.")

	strategiesCmd.Flags().String("category", "", "Only list this category.")
	strategiesCmd.Flags().String("direction", "", "Only list LONG or SHORT strategies.")

	rootCmd.AddCommand(runCmd, optimizeCmd, strategiesCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
