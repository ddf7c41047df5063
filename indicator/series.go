// Package indicator computes technical indicators over OHLCV series.
//
// Every *Series function returns a slice aligned with its input: element i is
// the indicator value as of bar i, using only bars 0..i. Bars before the
// indicator is defined carry a neutral default instead of NaN, so callers
// never need to special-case short input.
package indicator

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

const (
	rsiEpsilon   = 1e-10
	stochEpsilon = 1e-4

	// NeutralRSI is returned while RSI is undefined.
	NeutralRSI = 50.0
	// NeutralStoch is returned while %K / %D are undefined.
	NeutralStoch = 50.0
)

func Closes(c []types.Candle) []float64  { return pluck(c, func(k types.Candle) float64 { return k.Close }) }
func Highs(c []types.Candle) []float64   { return pluck(c, func(k types.Candle) float64 { return k.High }) }
func Lows(c []types.Candle) []float64    { return pluck(c, func(k types.Candle) float64 { return k.Low }) }
func Volumes(c []types.Candle) []float64 { return pluck(c, func(k types.Candle) float64 { return k.Volume }) }

func pluck(c []types.Candle, f func(types.Candle) float64) []float64 {
	out := make([]float64, len(c))
	for i, k := range c {
		out[i] = f(k)
	}
	return out
}

// RSISeries uses a rolling mean of positive and negative deltas over period
// bars. Bars with fewer than period deltas behind them are NeutralRSI.
func RSISeries(closes []float64, period int) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = NeutralRSI
	}
	if period <= 0 || len(closes) < period+1 {
		return out
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	var sumG, sumL float64
	for i := 1; i < len(closes); i++ {
		sumG += gains[i]
		sumL += losses[i]
		if i > period {
			sumG -= gains[i-period]
			sumL -= losses[i-period]
		}
		if i >= period {
			avgG := sumG / float64(period)
			avgL := sumL / float64(period)
			rs := avgG / (avgL + rsiEpsilon)
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// EMASeries seeds with the simple average of the first period values and
// recurses with k = 2/(period+1). Bars before the seed carry the raw value.
func EMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if period <= 0 || len(values) < period {
		return out
	}
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
	}
	prev := seed / float64(period)
	out[period-1] = prev
	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		prev = (values[i]-prev)*k + prev
		out[i] = prev
	}
	return out
}

// SMASeries is the rolling mean; bars before the window fills carry the raw
// value.
func SMASeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	if period <= 0 {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// MACDSeries returns line, signal and histogram. The signal EMA runs over
// the defined part of the line; all three are 0 until the signal is seeded.
func MACDSeries(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	n := len(closes)
	line = make([]float64, n)
	sig = make([]float64, n)
	hist = make([]float64, n)
	if fast <= 0 || slow <= 0 || signal <= 0 || n < slow+signal-1 {
		return line, sig, hist
	}
	ef := EMASeries(closes, fast)
	es := EMASeries(closes, slow)
	raw := make([]float64, n-(slow-1))
	for i := slow - 1; i < n; i++ {
		raw[i-(slow-1)] = ef[i] - es[i]
	}
	sigRaw := EMASeries(raw, signal)
	start := slow - 1 + signal - 1
	for i := start; i < n; i++ {
		j := i - (slow - 1)
		line[i] = raw[j]
		sig[i] = sigRaw[j]
		hist[i] = raw[j] - sigRaw[j]
	}
	return line, sig, hist
}

// HighestHighSeries is the rolling max of highs; before the window fills it
// covers every bar so far.
func HighestHighSeries(highs []float64, period int) []float64 {
	return rollingExtreme(highs, period, math.Max)
}

// LowestLowSeries is the rolling min of lows.
func LowestLowSeries(lows []float64, period int) []float64 {
	return rollingExtreme(lows, period, math.Min)
}

func rollingExtreme(values []float64, period int, pick func(a, b float64) float64) []float64 {
	out := make([]float64, len(values))
	if period <= 0 {
		copy(out, values)
		return out
	}
	for i := range values {
		start := i - period + 1
		if start < 0 {
			start = 0
		}
		m := values[start]
		for j := start + 1; j <= i; j++ {
			m = pick(m, values[j])
		}
		out[i] = m
	}
	return out
}

// StochKSeries is %K over period bars with a small epsilon in the
// denominator. Undefined bars are NeutralStoch.
func StochKSeries(candles []types.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	for i := range out {
		out[i] = NeutralStoch
	}
	if period <= 0 || len(candles) < period {
		return out
	}
	hh := HighestHighSeries(Highs(candles), period)
	ll := LowestLowSeries(Lows(candles), period)
	for i := period - 1; i < len(candles); i++ {
		out[i] = 100 * (candles[i].Close - ll[i]) / (hh[i] - ll[i] + stochEpsilon)
	}
	return out
}

// StochDSeries is the smooth-bar rolling mean of %K, defined once smooth
// defined %K values exist.
func StochDSeries(k []float64, kPeriod, smooth int) []float64 {
	out := make([]float64, len(k))
	for i := range out {
		out[i] = NeutralStoch
	}
	if smooth <= 0 || kPeriod <= 0 {
		return out
	}
	first := kPeriod - 1 + smooth - 1
	for i := first; i < len(k); i++ {
		sum := 0.0
		for j := i - smooth + 1; j <= i; j++ {
			sum += k[j]
		}
		out[i] = sum / float64(smooth)
	}
	return out
}

// BollingerSeries returns upper, middle and lower bands: rolling mean plus
// or minus mult sample standard deviations. Before the window fills all
// three bands equal the close.
func BollingerSeries(closes []float64, period int, mult float64) (upper, mid, lower []float64) {
	n := len(closes)
	upper = make([]float64, n)
	mid = make([]float64, n)
	lower = make([]float64, n)
	copy(upper, closes)
	copy(mid, closes)
	copy(lower, closes)
	if period < 2 {
		return upper, mid, lower
	}
	for i := period - 1; i < n; i++ {
		window := stats.Float64Data(closes[i-period+1 : i+1])
		m, err := window.Mean()
		if err != nil {
			continue
		}
		sd, err := stats.StandardDeviationSample(window)
		if err != nil {
			continue
		}
		mid[i] = m
		upper[i] = m + sd*mult
		lower[i] = m - sd*mult
	}
	return upper, mid, lower
}

// TrueRangeSeries is max(high-low, |high-prevClose|, |low-prevClose|); the
// first bar has no previous close and uses high-low.
func TrueRangeSeries(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		tr := c.High - c.Low
		if i > 0 {
			pc := candles[i-1].Close
			tr = math.Max(tr, math.Max(math.Abs(c.High-pc), math.Abs(c.Low-pc)))
		}
		out[i] = tr
	}
	return out
}

// ATRSeries is the rolling mean of true range; 0 until period true ranges
// with a previous close are available.
func ATRSeries(candles []types.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period <= 0 || len(candles) < period+1 {
		return out
	}
	tr := TrueRangeSeries(candles)
	sum := 0.0
	for i := 1; i < len(candles); i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// VolumeRatioSeries is volume over its rolling mean (window includes the
// current bar). Undefined bars, or a zero mean, give 1.
func VolumeRatioSeries(volumes []float64, period int) []float64 {
	out := make([]float64, len(volumes))
	for i := range out {
		out[i] = 1
	}
	if period <= 0 {
		return out
	}
	avg := SMASeries(volumes, period)
	for i := period - 1; i < len(volumes); i++ {
		if avg[i] > 0 {
			out[i] = volumes[i] / avg[i]
		}
	}
	return out
}

func last(s []float64, def float64) float64 {
	if len(s) == 0 {
		return def
	}
	return s[len(s)-1]
}

// RSI returns the latest RSI value.
func RSI(closes []float64, period int) float64 {
	return last(RSISeries(closes, period), NeutralRSI)
}

// EMA returns the latest EMA value, or the last close for short input.
func EMA(closes []float64, period int) float64 { return last(EMASeries(closes, period), 0) }

// SMA returns the latest SMA value, or the last close for short input.
func SMA(closes []float64, period int) float64 { return last(SMASeries(closes, period), 0) }

// MACD returns the latest line, signal and histogram values.
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist float64) {
	l, s, h := MACDSeries(closes, fast, slow, signal)
	return last(l, 0), last(s, 0), last(h, 0)
}

// StochK returns the latest %K.
func StochK(candles []types.Candle, period int) float64 {
	return last(StochKSeries(candles, period), NeutralStoch)
}

// StochD returns the latest %D.
func StochD(candles []types.Candle, kPeriod, smooth int) float64 {
	return last(StochDSeries(StochKSeries(candles, kPeriod), kPeriod, smooth), NeutralStoch)
}

// Bollinger returns the latest upper, middle and lower bands.
func Bollinger(closes []float64, period int, mult float64) (upper, mid, lower float64) {
	u, m, l := BollingerSeries(closes, period, mult)
	return last(u, 0), last(m, 0), last(l, 0)
}

// ATR returns the latest average true range.
func ATR(candles []types.Candle, period int) float64 { return last(ATRSeries(candles, period), 0) }

// VolumeRatio returns the latest volume ratio.
func VolumeRatio(volumes []float64, period int) float64 {
	return last(VolumeRatioSeries(volumes, period), 1)
}
