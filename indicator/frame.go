package indicator

import (
	"fmt"
	"sort"
	"sync"

	"github.com/evdnx/goti"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

// Frame is a candle series annotated with lazily computed, memoized
// indicator columns. Columns are computed once over the whole series and
// shared by every caller, so returned slices must not be modified.
// A Frame is safe for concurrent use.
type Frame struct {
	candles []types.Candle
	closes  []float64
	highs   []float64
	lows    []float64
	volumes []float64

	live    float64
	hasLive bool

	mu   sync.Mutex
	cols map[string][]float64
	osc  *Oscillators
}

// NewFrame wraps candles. The slice is not copied and must not change.
func NewFrame(candles []types.Candle) *Frame {
	return &Frame{
		candles: candles,
		closes:  Closes(candles),
		highs:   Highs(candles),
		lows:    Lows(candles),
		volumes: Volumes(candles),
		cols:    make(map[string][]float64),
	}
}

// NewLiveFrame is NewFrame with a current market price that Price reports
// for the last bar. Indicator columns still use the bar closes.
func NewLiveFrame(candles []types.Candle, price float64) *Frame {
	f := NewFrame(candles)
	if price > 0 {
		f.live, f.hasLive = price, true
	}
	return f
}

func (f *Frame) Len() int                 { return len(f.candles) }
func (f *Frame) Candles() []types.Candle  { return f.candles }
func (f *Frame) Candle(i int) types.Candle { return f.candles[i] }
func (f *Frame) Closes() []float64        { return f.closes }
func (f *Frame) Volumes() []float64       { return f.volumes }

// Price is the close of bar i, or the live price on the last bar of a
// live frame.
func (f *Frame) Price(i int) float64 {
	if f.hasLive && i == len(f.candles)-1 {
		return f.live
	}
	return f.closes[i]
}

func (f *Frame) column(key string, compute func() []float64) []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.cols[key]; ok {
		return c
	}
	c := compute()
	f.cols[key] = c
	return c
}

// columns memoizes a multi-output indicator under several keys at once.
func (f *Frame) columns(keys []string, compute func() [][]float64) [][]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]float64, len(keys))
	hit := true
	for i, k := range keys {
		c, ok := f.cols[k]
		if !ok {
			hit = false
			break
		}
		out[i] = c
	}
	if hit {
		return out
	}
	out = compute()
	for i, k := range keys {
		f.cols[k] = out[i]
	}
	return out
}

func (f *Frame) RSI(period int) []float64 {
	return f.column(fmt.Sprintf("rsi_%d", period), func() []float64 { return RSISeries(f.closes, period) })
}

func (f *Frame) EMA(period int) []float64 {
	return f.column(fmt.Sprintf("ema_%d", period), func() []float64 { return EMASeries(f.closes, period) })
}

func (f *Frame) SMA(period int) []float64 {
	return f.column(fmt.Sprintf("sma_%d", period), func() []float64 { return SMASeries(f.closes, period) })
}

// MACD returns the standard 12/26/9 line, signal and histogram.
func (f *Frame) MACD() (line, sig, hist []float64) {
	c := f.columns([]string{"macd_line", "macd_signal", "macd_hist"}, func() [][]float64 {
		l, s, h := MACDSeries(f.closes, 12, 26, 9)
		return [][]float64{l, s, h}
	})
	return c[0], c[1], c[2]
}

func (f *Frame) StochK(period int) []float64 {
	return f.column(fmt.Sprintf("stoch_k_%d", period), func() []float64 { return StochKSeries(f.candles, period) })
}

// StochD is the 3-bar mean of StochK(period).
func (f *Frame) StochD(period int) []float64 {
	k := f.StochK(period)
	return f.column(fmt.Sprintf("stoch_d_%d", period), func() []float64 { return StochDSeries(k, period, 3) })
}

func (f *Frame) Bollinger(period int, mult float64) (upper, mid, lower []float64) {
	suffix := fmt.Sprintf("%d_%g", period, mult)
	c := f.columns([]string{"bb_upper_" + suffix, "bb_mid_" + suffix, "bb_lower_" + suffix}, func() [][]float64 {
		u, m, l := BollingerSeries(f.closes, period, mult)
		return [][]float64{u, m, l}
	})
	return c[0], c[1], c[2]
}

func (f *Frame) ATR(period int) []float64 {
	return f.column(fmt.Sprintf("atr_%d", period), func() []float64 { return ATRSeries(f.candles, period) })
}

func (f *Frame) VolumeRatio(period int) []float64 {
	return f.column(fmt.Sprintf("volume_ratio_%d", period), func() []float64 { return VolumeRatioSeries(f.volumes, period) })
}

func (f *Frame) HighestHigh(period int) []float64 {
	return f.column(fmt.Sprintf("highest_high_%d", period), func() []float64 { return HighestHighSeries(f.highs, period) })
}

func (f *Frame) LowestLow(period int) []float64 {
	return f.column(fmt.Sprintf("lowest_low_%d", period), func() []float64 { return LowestLowSeries(f.lows, period) })
}

// MFI is the goti money flow index column (see Oscillators).
func (f *Frame) MFI() []float64 {
	return f.Oscillators().MFI
}

// Oscillators replays the series through a goti indicator suite once and
// returns its per-bar readings.
func (f *Frame) Oscillators() *Oscillators {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.osc == nil {
		f.osc = replayOscillators(f.candles)
		f.cols["mfi"] = f.osc.MFI
	}
	return f.osc
}

// Snapshot returns every column computed so far at bar i, plus the bar's
// price. Keys are column names such as "rsi_14" or "ema_50".
func (f *Frame) Snapshot(i int) map[string]float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]float64, len(f.cols)+1)
	if i < 0 || i >= len(f.candles) {
		return out
	}
	for k, c := range f.cols {
		out[k] = c[i]
	}
	out["price"] = f.Price(i)
	return out
}

// Columns lists the names of the memoized columns in sorted order.
func (f *Frame) Columns() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.cols))
	for k := range f.cols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Oscillators holds per-bar readings from a goti IndicatorSuite.
type Oscillators struct {
	MFI         []float64
	HMABullish  []bool
	HMABearish  []bool
	Err         error // suite construction failure; columns are neutral
	SkippedBars int   // bars the suite rejected
}

// NeutralMFI is reported while the money flow index is undefined.
const NeutralMFI = 50.0

func replayOscillators(candles []types.Candle) *Oscillators {
	o := &Oscillators{
		MFI:        make([]float64, len(candles)),
		HMABullish: make([]bool, len(candles)),
		HMABearish: make([]bool, len(candles)),
	}
	for i := range o.MFI {
		o.MFI[i] = NeutralMFI
	}
	suite, err := goti.NewIndicatorSuiteWithConfig(goti.DefaultConfig())
	if err != nil {
		o.Err = err
		return o
	}
	for i, c := range candles {
		if err := suite.Add(c.High, c.Low, c.Close, c.Volume); err != nil {
			o.SkippedBars++
			continue
		}
		if v, err := suite.GetMFI().Calculate(); err == nil {
			o.MFI[i] = v
		}
		if ok, err := suite.GetHMA().IsBullishCrossover(); err == nil {
			o.HMABullish[i] = ok
		}
		if ok, err := suite.GetHMA().IsBearishCrossover(); err == nil {
			o.HMABearish[i] = ok
		}
	}
	return o
}
