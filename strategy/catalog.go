package strategy

import (
	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// EMAPairs are the fast/slow periods of the EMA crossover family.
var EMAPairs = [][2]float64{{9, 21}, {12, 26}, {20, 50}, {50, 200}, {9, 50}, {21, 50}}

// RegisterDefaults adds the built-in strategy library to r. Every entry uses
// the default take-profit / stop-loss; the optimizer re-instantiates them
// with other risk settings.
func RegisterDefaults(r *Registry) error {
	add := func(s *Strategy) error {
		if s.TakeProfitPct == 0 {
			s.TakeProfitPct = DefaultTakeProfitPct
		}
		if s.StopLossPct == 0 {
			s.StopLossPct = DefaultStopLossPct
		}
		return r.Register(s)
	}
	expand := func(t *Template, g Grid) error {
		for _, v := range t.Expand(g) {
			s, err := v.Instantiate(DefaultTakeProfitPct, DefaultStopLossPct)
			if err != nil {
				return err
			}
			if err := r.Register(s); err != nil {
				return err
			}
		}
		return nil
	}
	fixed := func(id, name string, cat Category, dir types.Direction, c Condition) error {
		return add(&Strategy{ID: id, Name: name, Category: cat, Direction: dir, Condition: c})
	}

	steps := []func() error{
		// RSI
		func() error { return expand(RSIBelow, Grid{"period": {7, 14, 21}, "level": {20, 25, 30, 35}}) },
		func() error { return expand(RSIAbove, Grid{"period": {7, 14, 21}, "level": {65, 70, 75, 80}}) },
		func() error { return expand(RSIWithEMA, Grid{"rsi_level": {30, 35, 40}, "ema_period": {21, 50}}) },

		// MACD
		func() error {
			return fixed("macd_cross_up", "MACD Cross Up", CategoryMACD, types.Long, rule("macd_cross", 0, "==", "up"))
		},
		func() error {
			return fixed("macd_cross_down", "MACD Cross Down", CategoryMACD, types.Short, rule("macd_cross", 0, "==", "down"))
		},
		func() error {
			return fixed("macd_hist_positive", "MACD Histogram > 0", CategoryMACD, types.Long, rule("macd_histogram", 0, ">", 0))
		},
		func() error {
			return fixed("macd_hist_negative", "MACD Histogram < 0", CategoryMACD, types.Short, rule("macd_histogram", 0, "<", 0))
		},
		func() error {
			return fixed("macd_cross_up_rsi_below_40", "MACD Cross Up + RSI < 40", CategoryMACD, types.Long,
				All{rule("macd_cross", 0, "==", "up"), rule("rsi", 14, "<", 40)})
		},
		func() error {
			return fixed("macd_cross_up_rsi_below_50", "MACD Cross Up + RSI < 50", CategoryMACD, types.Long,
				All{rule("macd_cross", 0, "==", "up"), rule("rsi", 14, "<", 50)})
		},
		func() error {
			return fixed("macd_above_zero", "MACD Line > 0", CategoryMACD, types.Long, macdLineSign(true))
		},
		func() error {
			return fixed("macd_below_zero", "MACD Line < 0", CategoryMACD, types.Short, macdLineSign(false))
		},

		// Stochastic
		func() error { return expand(StochBelow, Grid{"period": {5, 9, 14, 21}, "level": {15, 20, 25, 30}}) },
		func() error { return expand(StochAbove, Grid{"period": {5, 9, 14, 21}, "level": {70, 75, 80, 85}}) },
		func() error { return expand(StochMACD, Grid{"stoch_period": {14}, "stoch_level": {25}}) },
		func() error {
			return fixed("stoch_k_cross_d_up", "Stoch K Cross D Up", CategoryStochastic, types.Long, stochKDCross(true))
		},
		func() error {
			return fixed("stoch_k_cross_d_down", "Stoch K Cross D Down", CategoryStochastic, types.Short, stochKDCross(false))
		},

		// Bollinger
		func() error { return expand(BBBelow, Grid{"period": {20}, "std": {1.5, 2.0, 2.5, 3.0}}) },
		func() error { return expand(BBAbove, Grid{"period": {20}, "std": {1.5, 2.0, 2.5, 3.0}}) },
		func() error {
			return fixed("bb_squeeze_breakout_up", "BB Squeeze + Breakout Up", CategoryBollinger, types.Long, bbSqueezeBreakout(true))
		},
		func() error {
			return fixed("bb_squeeze_breakout_down", "BB Squeeze + Breakout Down", CategoryBollinger, types.Short, bbSqueezeBreakout(false))
		},
		func() error {
			return fixed("bb_percent_b_below_0", "BB %B < 0 (Below Lower)", CategoryBollinger, types.Long, rule("bb_percent_b", 20, "<", 0))
		},
		func() error {
			return fixed("bb_percent_b_above_1", "BB %B > 1 (Above Upper)", CategoryBollinger, types.Short, rule("bb_percent_b", 20, ">", 1))
		},

		// EMA
		func() error {
			for _, p := range EMAPairs {
				g := Grid{"fast": {p[0]}, "slow": {p[1]}}
				if err := expand(EMACrossUp, g); err != nil {
					return err
				}
				if err := expand(EMACrossDown, g); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			for _, period := range []float64{9, 21, 50, 100, 200} {
				g := Grid{"period": {period}}
				if err := expand(PriceAboveEMA, g); err != nil {
					return err
				}
				if err := expand(PriceBelowEMA, g); err != nil {
					return err
				}
			}
			return nil
		},
		func() error {
			return fixed("triple_ema_bullish", "EMA9 > EMA21 > EMA50", CategoryEMA, types.Long, tripleEMA(true))
		},
		func() error {
			return fixed("triple_ema_bearish", "EMA9 < EMA21 < EMA50", CategoryEMA, types.Short, tripleEMA(false))
		},

		// Volume
		func() error {
			return fixed("volume_spike_price_up", "Volume > 2x Avg + Price Up", CategoryVolume, types.Long,
				All{volumeSpike(2), candleDirection(true)})
		},
		func() error {
			return fixed("volume_spike_price_down", "Volume > 2x Avg + Price Down", CategoryVolume, types.Short,
				All{volumeSpike(2), candleDirection(false)})
		},
		func() error {
			return fixed("volume_spike_rsi_oversold", "Volume Spike + RSI < 30", CategoryVolume, types.Long,
				All{volumeSpike(1.5), rule("rsi", 14, "<", 30)})
		},
		func() error { return expand(VolumeBreakout, Grid{"mult": {1.5, 2.0, 3.0}}) },

		// Pattern
		func() error {
			return fixed("double_bottom", "Double Bottom Pattern", CategoryPattern, types.Long, doubleBottom(20))
		},
		func() error {
			return fixed("double_top", "Double Top Pattern", CategoryPattern, types.Short, doubleTop(20))
		},
		func() error {
			return fixed("bullish_engulfing", "Bullish Engulfing", CategoryPattern, types.Long, bullishEngulfing())
		},
		func() error {
			return fixed("bearish_engulfing", "Bearish Engulfing", CategoryPattern, types.Short, bearishEngulfing())
		},
		func() error { return fixed("hammer", "Hammer Candle", CategoryPattern, types.Long, hammer()) },
		func() error { return fixed("shooting_star", "Shooting Star", CategoryPattern, types.Short, shootingStar()) },
		func() error { return fixed("morning_star", "Morning Star", CategoryPattern, types.Long, star(true)) },
		func() error { return fixed("evening_star", "Evening Star", CategoryPattern, types.Short, star(false)) },
		func() error { return fixed("doji_reversal", "Doji at Support", CategoryPattern, types.Long, doji()) },

		// Combined
		func() error {
			return fixed("rsi_ema_volume_long", "RSI<30 + Price>EMA50 + Volume Spike", CategoryCombined, types.Long,
				All{rule("rsi", 14, "<", 30), rule("price_vs_ema", 50, ">", 0), volumeSpike(1.5)})
		},
		func() error {
			return fixed("stoch_macd_rsi_long", "Stoch<25 + MACD Up + RSI<40", CategoryCombined, types.Long,
				All{rule("stoch_k", 14, "<", 25), rule("macd_cross", 0, "==", "up"), rule("rsi", 14, "<", 40)})
		},
		func() error {
			return fixed("triple_ema_rsi_long", "EMA9>EMA21>EMA50 + RSI<40", CategoryCombined, types.Long,
				All{tripleEMA(true), rule("rsi", 14, "<", 40)})
		},
		func() error {
			return fixed("bb_rsi_volume_long", "Price<BB Lower + RSI<30 + High Volume", CategoryCombined, types.Long,
				All{bollingerBreak(20, 2, false), rule("rsi", 14, "<", 30), rule("volume_ratio", 20, ">", 1)})
		},
		func() error {
			return fixed("multi_indicator_confluence_long", "RSI<35 + Stoch<30 + MACD Positive + EMA Trend", CategoryCombined, types.Long,
				All{rule("rsi", 14, "<", 35), rule("stoch_k", 14, "<", 30), rule("macd_histogram", 0, ">", 0), rule("price_vs_ema", 50, ">", 0)})
		},
		func() error {
			return fixed("rsi_oversold_bounce", "RSI<25 + Price>EMA21 + Green Candle", CategoryCombined, types.Long,
				All{rule("rsi", 14, "<", 25), rule("price_vs_ema", 21, ">", 0), candleDirection(true)})
		},
		func() error {
			return fixed("macd_bb_long", "MACD Cross Up + Price<BB Middle", CategoryCombined, types.Long,
				All{rule("macd_cross", 0, "==", "up"), priceBelowBBMiddle()})
		},
		func() error {
			return fixed("stoch_bb_long", "Stoch<20 + Price<BB Lower", CategoryCombined, types.Long,
				All{rule("stoch_k", 14, "<", 20), bollingerBreak(20, 2, false)})
		},
		func() error {
			return fixed("ema_rsi_stoch_long", "Price>EMA50 + RSI<40 + Stoch<30", CategoryCombined, types.Long,
				All{rule("price_vs_ema", 50, ">", 0), rule("rsi", 14, "<", 40), rule("stoch_k", 14, "<", 30)})
		},
		func() error {
			return fixed("momentum_breakout", "RSI>50 + MACD>0 + Price>EMA20 + Volume Spike", CategoryCombined, types.Long,
				All{rule("rsi", 14, ">", 50), macdLineSign(true), rule("price_vs_ema", 20, ">", 0), volumeSpike(1.5)})
		},

		// Oscillator (goti suite)
		func() error {
			return fixed("mfi_below_20", "MFI < 20", CategoryOscillator, types.Long, rule("mfi", 0, "<", 20))
		},
		func() error {
			return fixed("mfi_above_80", "MFI > 80", CategoryOscillator, types.Short, rule("mfi", 0, ">", 80))
		},
		func() error {
			return fixed("hma_cross_up", "HMA Bullish Crossover", CategoryOscillator, types.Long, hmaCross(true))
		},
		func() error {
			return fixed("hma_cross_down", "HMA Bearish Crossover", CategoryOscillator, types.Short, hmaCross(false))
		},
		func() error {
			return fixed("hma_cross_up_mfi_below_40", "HMA Cross Up + MFI < 40", CategoryOscillator, types.Long,
				All{hmaCross(true), rule("mfi", 0, "<", 40)})
		},
		func() error {
			return fixed("hma_cross_down_mfi_above_60", "HMA Cross Down + MFI > 60", CategoryOscillator, types.Short,
				All{hmaCross(false), rule("mfi", 0, ">", 60)})
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func volumeSpike(mult float64) Condition {
	c, err := Rule{Indicator: "volume_spike", Multiplier: mult, Value: true}.Compile()
	if err != nil {
		panic(err)
	}
	return c
}

// Default returns a registry holding the built-in library.
func Default() *Registry {
	r := NewRegistry()
	if err := RegisterDefaults(r); err != nil {
		panic(err)
	}
	return r
}
