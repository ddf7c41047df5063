package risk

import (
	"fmt"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Levels returns the absolute take-profit and stop-loss prices for a
// position opened at entry. tpPct and slPct are percents (0.3 = 0.3 %).
func Levels(dir types.Direction, entry, tpPct, slPct float64) (tp, sl float64) {
	if dir == types.Short {
		return entry * (1 - tpPct/100), entry * (1 + slPct/100)
	}
	return entry * (1 + tpPct/100), entry * (1 - slPct/100)
}

// PnLPercent is the signed percent return of a round trip.
func PnLPercent(dir types.Direction, entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	if dir == types.Short {
		return (entry - exit) / entry * 100
	}
	return (exit - entry) / entry * 100
}

// HitTakeProfit reports whether a bar with the given extremes reached tp.
func HitTakeProfit(dir types.Direction, high, low, tp float64) bool {
	if dir == types.Short {
		return low <= tp
	}
	return high >= tp
}

// HitStopLoss reports whether a bar with the given extremes reached sl.
func HitStopLoss(dir types.Direction, high, low, sl float64) bool {
	if dir == types.Short {
		return high >= sl
	}
	return low <= sl
}

// ValidatePercents rejects take-profit / stop-loss percents that would
// produce inverted or degenerate levels.
func ValidatePercents(tpPct, slPct float64) error {
	if tpPct <= 0 || tpPct >= 100 {
		return fmt.Errorf("take profit %% (%g) must be >0 and <100", tpPct)
	}
	if slPct <= 0 || slPct >= 100 {
		return fmt.Errorf("stop loss %% (%g) must be >0 and <100", slPct)
	}
	return nil
}
