// Command signald polls candle files on an interval and emits throttled
// live signals as JSON lines on stdout.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/config"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/dispatch"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/marketdata"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/signal"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
)

// liveBars is how many recent candles each cycle hands to the checker.
const liveBars = 500

var rootCmd = &cobra.Command{
	Use:   "signald [--config cryptoden.yaml]",
	Short: "Live signal daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		app := fx.New(
			fx.NopLogger,
			fx.Supply(configPath(path)),
			fx.Provide(
				newConfig,
				newLogger,
				newBook,
				newChecker,
				newSource,
				newDispatchers,
				newMux,
			),
			fx.Invoke(runPoller, runSink, runHTTP),
		)
		app.Run()
		return app.Err()
	},
}

type configPath string

func newConfig(p configPath) (*config.Config, error) { return config.Load(string(p)) }

func newLogger(lc fx.Lifecycle, cfg *config.Config) (logger.Logger, error) {
	log, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{OnStop: func(context.Context) error {
		logger.Sync(log)
		return nil
	}})
	return log, nil
}

func newBook(cfg *config.Config) (*strategy.Book, error) { return strategy.LoadBookFile(cfg.BookPath) }

func newChecker(cfg *config.Config, book *strategy.Book, log logger.Logger) (*signal.Checker, error) {
	var state *signal.ThrottleState
	if cfg.StatePath != "" {
		s, err := signal.LoadState(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		if s != nil {
			log.Info("throttle_state_restored", logger.Int("total_today", s.Total), logger.Time("reset_date", s.ResetDate))
		}
		state = s
	}
	return signal.NewChecker(book, cfg.Signals, signal.SystemClock(), state, log)
}

func newSource(cfg *config.Config) signal.CandleSource {
	return marketdata.DirSource{Dir: cfg.DataDir, Limit: liveBars}
}

type dispatchers struct {
	fx.Out

	Channel *dispatch.ChannelDispatcher
	All     dispatch.Dispatcher
}

func newDispatchers(log logger.Logger) dispatchers {
	ch := dispatch.NewChannelDispatcher(64, log)
	return dispatchers{Channel: ch, All: dispatch.Multi{dispatch.LogDispatcher{Log: log}, ch}}
}

func runPoller(lc fx.Lifecycle, cfg *config.Config, c *signal.Checker, src signal.CandleSource, d dispatch.Dispatcher, log logger.Logger) {
	p := &signal.Poller{Checker: c, Source: src, Dispatcher: d, Interval: cfg.Signals.PollInterval, Log: log}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			st := c.Status()
			log.Info("signald_started",
				logger.Int("symbols", len(c.Symbols())),
				logger.Int("long", st.Long),
				logger.Int("short", st.Short),
				logger.Duration("interval", p.Interval))
			go func() {
				defer close(done)
				_ = p.Run(ctx)
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			if cfg.StatePath == "" {
				return nil
			}
			return signal.SaveState(cfg.StatePath, c.State())
		},
	})
}

// runSink writes every dispatched signal as one JSON line on stdout.
func runSink(lc fx.Lifecycle, ch *dispatch.ChannelDispatcher, log logger.Logger) {
	stop := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				for {
					select {
					case <-stop:
						return
					case sig := <-ch.C():
						b, err := sonic.Marshal(sig)
						if err != nil {
							log.Error("signal_encode_failed", logger.String("id", sig.ID), logger.Err(err))
							continue
						}
						fmt.Fprintln(os.Stdout, string(b))
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)
			return nil
		},
	})
}

func newMux(c *signal.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		b, err := sonic.Marshal(c.Status())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(b)
	})
	return mux
}

func runHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux, log logger.Logger) {
	if cfg.Metrics.Addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", cfg.Metrics.Addr)
			if err != nil {
				return err
			}
			log.Info("http_listening", logger.String("addr", ln.Addr().String()))
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func main() {
	rootCmd.Flags().String("config", "", "Path to the YAML config file.")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
