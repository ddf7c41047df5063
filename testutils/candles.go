package testutils

import (
	"math"
	"sync"
	"time"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Epoch is the timestamp of the first synthetic bar.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// Series builds hourly candles from closes: open is the previous close,
// high/low extend half a unit past the body, volume is constant.
func Series(closes ...float64) []types.Candle {
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		out[i] = types.Candle{
			Timestamp: Epoch.Add(time.Duration(i) * time.Hour),
			Open:      open,
			High:      math.Max(open, c) + 0.5,
			Low:       math.Min(open, c) - 0.5,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

// Flat builds n hourly bars with open = high = low = close = price.
func Flat(n int, price float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		out[i] = types.Candle{
			Timestamp: Epoch.Add(time.Duration(i) * time.Hour),
			Open:      price, High: price, Low: price, Close: price,
			Volume: 1000,
		}
	}
	return out
}

// RSIDip is a 200-bar series that oscillates 100/101 until bar 79, drops
// to 81 at bar 80 (RSI(14) ~ 21) and oscillates 81/82 afterwards, so RSI is
// back to ~50 well before bar 95.
func RSIDip() []types.Candle {
	closes := make([]float64, 200)
	for i := range closes {
		switch {
		case i < 80:
			closes[i] = 100 + float64(i%2)
		case i == 80:
			closes[i] = 81
		default:
			closes[i] = 81 + float64((i-80)%2)
		}
	}
	return Series(closes...)
}

// FakeClock is a settable clock.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock { return &FakeClock{now: t} }

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}
