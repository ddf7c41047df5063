package strategy

import (
	"fmt"
	"math"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/indicator"
)

// Compiled predicates for conditions the declarative rules cannot express.
// They all return false rather than reading before bar 0.

func emaCross(fast, slow int, up bool) Condition {
	dir := "Down"
	if up {
		dir = "Up"
	}
	return When(fmt.Sprintf("EMA(%d) Cross %s EMA(%d)", fast, dir, slow), func(f *indicator.Frame, i int) bool {
		if i < 1 {
			return false
		}
		a, b := f.EMA(fast), f.EMA(slow)
		if up {
			return a[i] > b[i] && a[i-1] <= b[i-1]
		}
		return a[i] < b[i] && a[i-1] >= b[i-1]
	})
}

func tripleEMA(bullish bool) Condition {
	desc := "EMA9 < EMA21 < EMA50"
	if bullish {
		desc = "EMA9 > EMA21 > EMA50"
	}
	return When(desc, func(f *indicator.Frame, i int) bool {
		e9, e21, e50 := f.EMA(9)[i], f.EMA(21)[i], f.EMA(50)[i]
		if bullish {
			return e9 > e21 && e21 > e50
		}
		return e9 < e21 && e21 < e50
	})
}

func bollingerBreak(period int, std float64, above bool) Condition {
	if above {
		return When(fmt.Sprintf("Price > BB(%d, %g) Upper", period, std), func(f *indicator.Frame, i int) bool {
			u, _, _ := f.Bollinger(period, std)
			return i >= period-1 && f.Price(i) > u[i]
		})
	}
	return When(fmt.Sprintf("Price < BB(%d, %g) Lower", period, std), func(f *indicator.Frame, i int) bool {
		_, _, l := f.Bollinger(period, std)
		return i >= period-1 && f.Price(i) < l[i]
	})
}

func priceBelowBBMiddle() Condition {
	return When("Price < BB Middle", func(f *indicator.Frame, i int) bool {
		return i >= 19 && f.Price(i) < f.SMA(20)[i]
	})
}

// bbWidth is 2*stddev/sma over 20 bars, from the 1-sigma bands.
func bbWidth(f *indicator.Frame, i int) float64 {
	u, m, _ := f.Bollinger(20, 1)
	if m[i] == 0 {
		return 0
	}
	return 2 * (u[i] - m[i]) / m[i]
}

// bbSqueezeBreakout fires when the previous bar's band width was below 80 %
// of its 20-bar mean and price now closes beyond one standard deviation.
func bbSqueezeBreakout(up bool) Condition {
	dir := "Down"
	if up {
		dir = "Up"
	}
	return When("BB Squeeze + Breakout "+dir, func(f *indicator.Frame, i int) bool {
		const period = 20
		prev := i - 1
		if prev < 2*period-2 {
			return false
		}
		mean := 0.0
		for j := prev - period + 1; j <= prev; j++ {
			mean += bbWidth(f, j)
		}
		mean /= period
		if !(bbWidth(f, prev) < mean*0.8) {
			return false
		}
		u, _, l := f.Bollinger(period, 1)
		if up {
			return f.Price(i) > u[i]
		}
		return f.Price(i) < l[i]
	})
}

func stochKDCross(up bool) Condition {
	dir := "Down"
	if up {
		dir = "Up"
	}
	return When("Stoch K Cross D "+dir, func(f *indicator.Frame, i int) bool {
		if i < 16 {
			return false
		}
		k, d := f.StochK(14), f.StochD(14)
		if up {
			return k[i] > d[i] && k[i-1] <= d[i-1]
		}
		return k[i] < d[i] && k[i-1] >= d[i-1]
	})
}

func macdLineSign(positive bool) Condition {
	desc := "MACD Line < 0"
	if positive {
		desc = "MACD Line > 0"
	}
	return When(desc, func(f *indicator.Frame, i int) bool {
		line, _, _ := f.MACD()
		if positive {
			return line[i] > 0
		}
		return line[i] < 0
	})
}

func candleDirection(green bool) Condition {
	desc := "Red Candle"
	if green {
		desc = "Green Candle"
	}
	return When(desc, func(f *indicator.Frame, i int) bool {
		c := f.Candle(i)
		if green {
			return f.Price(i) > c.Open
		}
		return f.Price(i) < c.Open
	})
}

// volumeBreakout: volume spike and a close above the previous 20-bar high.
func volumeBreakout(mult float64) Condition {
	return When(fmt.Sprintf("Volume > %gx + New High", mult), func(f *indicator.Frame, i int) bool {
		if i < 20 {
			return false
		}
		return f.VolumeRatio(20)[i] > mult && f.Price(i) > f.HighestHigh(20)[i-1]
	})
}

func doubleBottom(lookback int) Condition {
	return When(fmt.Sprintf("Double Bottom (%d)", lookback), func(f *indicator.Frame, i int) bool {
		if i < lookback {
			return false
		}
		lows := f.Candles()[i-lookback : i]
		min := math.Inf(1)
		for _, c := range lows {
			min = math.Min(min, c.Low)
		}
		n := 0
		for _, c := range lows {
			if c.Low < min*1.02 {
				n++
			}
		}
		return n >= 2
	})
}

func doubleTop(lookback int) Condition {
	return When(fmt.Sprintf("Double Top (%d)", lookback), func(f *indicator.Frame, i int) bool {
		if i < lookback {
			return false
		}
		highs := f.Candles()[i-lookback : i]
		max := math.Inf(-1)
		for _, c := range highs {
			max = math.Max(max, c.High)
		}
		n := 0
		for _, c := range highs {
			if c.High > max*0.98 {
				n++
			}
		}
		return n >= 2
	})
}

func bullishEngulfing() Condition {
	return When("Bullish Engulfing", func(f *indicator.Frame, i int) bool {
		if i < 1 {
			return false
		}
		p, c := f.Candle(i-1), f.Candle(i)
		return p.Close < p.Open && c.Close > c.Open && c.Open < p.Close && c.Close > p.Open
	})
}

func bearishEngulfing() Condition {
	return When("Bearish Engulfing", func(f *indicator.Frame, i int) bool {
		if i < 1 {
			return false
		}
		p, c := f.Candle(i-1), f.Candle(i)
		return p.Close > p.Open && c.Close < c.Open && c.Open > p.Close && c.Close < p.Open
	})
}

func wicks(f *indicator.Frame, i int) (body, lower, upper float64) {
	c := f.Candle(i)
	body = math.Abs(c.Close - c.Open)
	lower = math.Min(c.Open, c.Close) - c.Low
	upper = c.High - math.Max(c.Open, c.Close)
	return body, lower, upper
}

func hammer() Condition {
	return When("Hammer Candle", func(f *indicator.Frame, i int) bool {
		body, lower, upper := wicks(f, i)
		return body > 0 && lower > body*2 && upper < body*0.5
	})
}

func shootingStar() Condition {
	return When("Shooting Star", func(f *indicator.Frame, i int) bool {
		body, lower, upper := wicks(f, i)
		return body > 0 && upper > body*2 && lower < body*0.5
	})
}

// star matches the three-bar morning (bullish) or evening star.
func star(bullish bool) Condition {
	desc := "Evening Star"
	if bullish {
		desc = "Morning Star"
	}
	return When(desc, func(f *indicator.Frame, i int) bool {
		if i < 2 {
			return false
		}
		d1, d2, d3 := f.Candle(i-2), f.Candle(i-1), f.Candle(i)
		big := math.Abs(d1.Close-d1.Open) > d1.Close*0.01
		small := math.Abs(d2.Close-d2.Open) < d2.Close*0.005
		mid := (d1.Open + d1.Close) / 2
		if bullish {
			return d1.Close < d1.Open && big && small && d3.Close > d3.Open && d3.Close > mid
		}
		return d1.Close > d1.Open && big && small && d3.Close < d3.Open && d3.Close < mid
	})
}

func doji() Condition {
	return When("Doji", func(f *indicator.Frame, i int) bool {
		c := f.Candle(i)
		rng := c.High - c.Low
		return rng > 0 && math.Abs(c.Close-c.Open) < rng*0.1
	})
}

// hmaCross reads the goti Hull moving average crossover flags.
func hmaCross(up bool) Condition {
	desc := "HMA Bearish Crossover"
	if up {
		desc = "HMA Bullish Crossover"
	}
	return When(desc, func(f *indicator.Frame, i int) bool {
		o := f.Oscillators()
		if up {
			return o.HMABullish[i]
		}
		return o.HMABearish[i]
	})
}
