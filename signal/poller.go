package signal

import (
	"context"
	"time"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/dispatch"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
)

// CandleSource supplies recent candles and the current price for a symbol.
// Fetching and retrying are its concern, not the checker's.
type CandleSource interface {
	Market(ctx context.Context, symbol string) (MarketData, error)
}

// Poller runs one polling cycle per interval: fetch every symbol, check
// them in order, dispatch the signals. Cycles never overlap, which keeps
// throttle updates serialized.
type Poller struct {
	Checker    *Checker
	Source     CandleSource
	Dispatcher dispatch.Dispatcher
	Interval   time.Duration
	Log        logger.Logger
}

// Run polls until ctx is done. The first cycle starts immediately.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.RunOnce(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single cycle and returns the number of signals
// dispatched. Fetch and dispatch failures are logged and skipped.
func (p *Poller) RunOnce(ctx context.Context) int {
	log := p.Log
	if log == nil {
		log = logger.NewNop()
	}
	market := make(map[string]MarketData)
	for _, sym := range p.Checker.Symbols() {
		if ctx.Err() != nil {
			return 0
		}
		md, err := p.Source.Market(ctx, sym)
		if err != nil {
			log.Warn("market_fetch_failed", logger.String("symbol", sym), logger.Err(err))
			continue
		}
		market[sym] = md
	}

	sent := 0
	for _, sig := range p.Checker.CheckAll(market) {
		if err := p.Dispatcher.Dispatch(ctx, sig); err != nil {
			log.Error("signal_dispatch_failed", logger.String("symbol", sig.Symbol), logger.Err(err))
			continue
		}
		sent++
	}
	log.Debug("poll_cycle_done", logger.Int("symbols", len(market)), logger.Int("signals", sent))
	return sent
}
