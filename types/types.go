package types

import (
	"errors"
	"fmt"
	"time"
)

// Direction is the side a strategy trades.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool { return d == Long || d == Short }

// ParseDirection accepts "LONG"/"SHORT" in any case.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "LONG", "long", "Long", "BUY", "buy":
		return Long, nil
	case "SHORT", "short", "Short", "SELL", "sell":
		return Short, nil
	}
	return "", fmt.Errorf("unknown direction %q", s)
}

// ExitReason records why a simulated trade closed.
type ExitReason string

const (
	ExitTP      ExitReason = "TP"
	ExitSL      ExitReason = "SL"
	ExitTimeout ExitReason = "TIMEOUT"
)

// Candle is one OHLCV bar. Timestamps are UTC.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

var (
	ErrUnsorted  = errors.New("candles are not in ascending timestamp order")
	ErrDuplicate = errors.New("duplicate candle timestamp")
)

// ValidateSeries checks that timestamps are strictly ascending.
func ValidateSeries(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		prev, cur := candles[i-1].Timestamp, candles[i].Timestamp
		if cur.Equal(prev) {
			return fmt.Errorf("%w at index %d (%s)", ErrDuplicate, i, cur.Format(time.RFC3339))
		}
		if cur.Before(prev) {
			return fmt.Errorf("%w at index %d", ErrUnsorted, i)
		}
	}
	return nil
}

// Trade is a closed simulated position.
type Trade struct {
	EntryIndex int        `json:"entry_index"`
	EntryTime  time.Time  `json:"entry_time"`
	EntryPrice float64    `json:"entry_price"`
	Direction  Direction  `json:"direction"`
	TakeProfit float64    `json:"take_profit"`
	StopLoss   float64    `json:"stop_loss"`
	ExitIndex  int        `json:"exit_index"`
	ExitTime   time.Time  `json:"exit_time"`
	ExitPrice  float64    `json:"exit_price"`
	PnLPercent float64    `json:"pnl_percent"`
	ExitReason ExitReason `json:"exit_reason"`
}

// BarsHeld is the number of bars between entry and exit.
func (t Trade) BarsHeld() int { return t.ExitIndex - t.EntryIndex }

// StrategyStats aggregates a list of trades.
type StrategyStats struct {
	TotalTrades     int     `json:"total_trades"`
	Wins            int     `json:"wins"`
	Losses          int     `json:"losses"`
	Breakeven       int     `json:"breakeven"`
	WinRate         float64 `json:"win_rate"`
	TotalPnLPercent float64 `json:"total_pnl_percent"`
	AvgPnLPercent   float64 `json:"avg_pnl_percent"`
	ProfitFactor    float64 `json:"profit_factor"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	TradesPerDay    float64 `json:"trades_per_day"`
}

// Signal is a throttled live trade suggestion.
type Signal struct {
	ID            string             `json:"id"`
	Symbol        string             `json:"symbol"`
	Direction     Direction          `json:"direction"`
	StrategyID    string             `json:"strategy_id"`
	StrategyName  string             `json:"strategy_name"`
	EntryPrice    float64            `json:"entry_price"`
	StopLoss      float64            `json:"stop_loss"`
	TakeProfit    float64            `json:"take_profit"`
	Confidence    float64            `json:"confidence"`
	WinRate       float64            `json:"win_rate"`
	ConditionsMet []string           `json:"conditions_met"`
	Indicators    map[string]float64 `json:"indicators,omitempty"`
	IssuedAt      time.Time          `json:"issued_at"`
	ExpiresAt     time.Time          `json:"expires_at"`
}

// Expired reports whether the signal is past its validity window at now.
func (s Signal) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }
