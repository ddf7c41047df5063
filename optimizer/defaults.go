package optimizer

import (
	"github.com/Deniskript/CryptoDen-v1.0-sub000/strategy"
)

// Defaults used by the optimize command.
const (
	DefaultMinTrades  = 50
	DefaultMinWinRate = 60.0
)

// DefaultVariants is the stock sweep: RSI dips in an uptrend, RSI
// overbought shorts, stochastic + MACD longs and double bottoms.
func DefaultVariants() []strategy.Variant {
	oversold := []strategy.Params{
		{"rsi_period": 7, "rsi_level": 30, "ema_period": 21},
		{"rsi_period": 7, "rsi_level": 35, "ema_period": 21},
		{"rsi_period": 7, "rsi_level": 40, "ema_period": 21},
		{"rsi_period": 14, "rsi_level": 30, "ema_period": 50},
		{"rsi_period": 14, "rsi_level": 35, "ema_period": 50},
		{"rsi_period": 21, "rsi_level": 30, "ema_period": 50},
	}
	overbought := []strategy.Params{
		{"rsi_period": 7, "rsi_level": 70},
		{"rsi_period": 7, "rsi_level": 75},
		{"rsi_period": 14, "rsi_level": 70},
		{"rsi_period": 14, "rsi_level": 75},
		{"rsi_period": 21, "rsi_level": 75},
		{"rsi_period": 21, "rsi_level": 80},
	}
	stochMACD := []strategy.Params{
		{"stoch_period": 9, "stoch_level": 20},
		{"stoch_period": 9, "stoch_level": 25},
		{"stoch_period": 14, "stoch_level": 20},
		{"stoch_period": 14, "stoch_level": 25},
		{"stoch_period": 14, "stoch_level": 30},
	}
	var out []strategy.Variant
	for _, ps := range oversold {
		out = append(out, strategy.RSIOversold.With(ps))
	}
	for _, ps := range overbought {
		out = append(out, strategy.RSIOverbought.With(ps))
	}
	for _, ps := range stochMACD {
		out = append(out, strategy.StochMACD.With(ps))
	}
	out = append(out, strategy.DoubleBottom.Expand(strategy.Grid{"lookback": {15, 20, 25}})...)
	return out
}

// DefaultTPSL is the stock set of take-profit / stop-loss pairs.
func DefaultTPSL() []TPSL {
	return []TPSL{
		{TakeProfitPct: 0.3, StopLossPct: 0.5},
		{TakeProfitPct: 0.5, StopLossPct: 0.5},
		{TakeProfitPct: 0.5, StopLossPct: 0.8},
		{TakeProfitPct: 0.8, StopLossPct: 1.0},
	}
}
