package dispatch

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// ErrDropped is returned when a signal could not be handed off.
var ErrDropped = errors.New("signal dropped")

// Dispatcher hands an emitted signal to whatever consumes it (a notifier,
// an execution service). Implementations must not block the polling loop
// for long.
type Dispatcher interface {
	Dispatch(ctx context.Context, s *types.Signal) error
}

// ChannelDispatcher forwards signals on a buffered channel. A full buffer
// drops the signal instead of blocking.
type ChannelDispatcher struct {
	ch  chan *types.Signal
	log logger.Logger

	mu      sync.Mutex
	dropped int
}

func NewChannelDispatcher(buffer int, log logger.Logger) *ChannelDispatcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &ChannelDispatcher{ch: make(chan *types.Signal, buffer), log: log}
}

// C is the receive side.
func (d *ChannelDispatcher) C() <-chan *types.Signal { return d.ch }

func (d *ChannelDispatcher) Dispatch(ctx context.Context, s *types.Signal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.ch <- s:
		return nil
	default:
		d.mu.Lock()
		d.dropped++
		d.mu.Unlock()
		d.log.Warn("signal_dropped",
			logger.String("symbol", s.Symbol),
			logger.String("strategy", s.StrategyID))
		return errors.Wrapf(ErrDropped, "%s: buffer full", s.Symbol)
	}
}

// Dropped is the number of signals lost to a full buffer.
func (d *ChannelDispatcher) Dropped() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// LogDispatcher only logs the signal.
type LogDispatcher struct {
	Log logger.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, s *types.Signal) error {
	d.Log.Info("signal",
		logger.String("id", s.ID),
		logger.String("symbol", s.Symbol),
		logger.String("direction", string(s.Direction)),
		logger.String("strategy", s.StrategyID),
		logger.Float64("entry", s.EntryPrice),
		logger.Float64("take_profit", s.TakeProfit),
		logger.Float64("stop_loss", s.StopLoss),
		logger.Float64("confidence", s.Confidence),
		logger.Time("expires_at", s.ExpiresAt))
	return nil
}

// Multi fans a signal out to every dispatcher and joins their errors.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, s *types.Signal) error {
	var errs error
	for _, d := range m {
		errs = multierr.Append(errs, d.Dispatch(ctx, s))
	}
	return errs
}
