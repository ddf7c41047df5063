package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/types"
)

func bars(closes ...float64) []types.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return out
}

func TestRSIShortInputIsNeutral(t *testing.T) {
	assert.Equal(t, 50.0, RSI([]float64{1, 2, 3}, 14))
	assert.Equal(t, 50.0, RSI(nil, 14))
}

func TestRSIAllGainsApproaches100(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	assert.InDelta(t, 100.0, RSI(closes, 14), 1e-6)
}

func TestRSIMixedWindow(t *testing.T) {
	// 7 up-moves of 1, 6 down-moves of 1 and one drop of 20 inside the window.
	closes := make([]float64, 0, 81)
	for i := 0; i < 80; i++ {
		closes = append(closes, 100+float64(i%2))
	}
	closes = append(closes, 81)
	got := RSI(closes, 14)
	assert.InDelta(t, 100.0*7/33, got, 1e-6)
	assert.Less(t, got, 25.0)
}

func TestEMASeedsWithSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	ema := EMASeries(closes, 3)
	// warm-up bars carry the raw value, seed is mean(1,2,3) = 2
	assert.Equal(t, []float64{1, 2}, ema[:2])
	assert.InDelta(t, 2.0, ema[2], 1e-12)
	assert.InDelta(t, 3.0, ema[3], 1e-12) // (4-2)*0.5+2
	assert.InDelta(t, 4.0, ema[4], 1e-12)
	assert.Equal(t, 5.0, EMA([]float64{5}, 10), "short input returns last close")
}

func TestSMA(t *testing.T) {
	assert.InDelta(t, 4.0, SMA([]float64{1, 2, 3, 4, 5}, 3), 1e-12)
	assert.Equal(t, 7.0, SMA([]float64{7}, 3))
}

func TestMACDUndefinedIsZero(t *testing.T) {
	l, s, h := MACD([]float64{1, 2, 3}, 12, 26, 9)
	assert.Zero(t, l)
	assert.Zero(t, s)
	assert.Zero(t, h)
}

func TestMACDRisingSeriesPositive(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*float64(i)*0.01
	}
	line, sig, hist := MACDSeries(closes, 12, 26, 9)
	require.Len(t, line, 60)
	assert.Zero(t, line[32], "signal not yet seeded at index 32")
	assert.Greater(t, line[59], 0.0)
	assert.InDelta(t, line[59]-sig[59], hist[59], 1e-12)
}

func TestStochastic(t *testing.T) {
	c := bars(10, 11, 12, 13, 14)
	// window 3 at last bar: high max 15, low min 11, close 14
	k := StochKSeries(c, 3)
	assert.Equal(t, 50.0, k[1])
	assert.InDelta(t, 100*3/(4+1e-4), k[4], 1e-9)

	d := StochDSeries(k, 3, 3)
	assert.Equal(t, 50.0, d[3])
	assert.InDelta(t, (k[2]+k[3]+k[4])/3, d[4], 1e-12)
}

func TestBollingerUsesSampleStdDev(t *testing.T) {
	closes := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	u, m, l := Bollinger(closes, 8, 2)
	sd := math.Sqrt(32.0 / 7.0)
	assert.InDelta(t, 5.0, m, 1e-12)
	assert.InDelta(t, 5+2*sd, u, 1e-9)
	assert.InDelta(t, 5-2*sd, l, 1e-9)

	u0, m0, l0 := Bollinger([]float64{3, 4}, 20, 2)
	assert.Equal(t, []float64{4, 4, 4}, []float64{u0, m0, l0})
}

func TestATR(t *testing.T) {
	c := bars(10, 12, 11)
	// TR[1] = max(2, |13-10|, |11-10|) = 3 ; TR[2] = max(2, |12-12|, |10-12|) = 2
	assert.InDelta(t, 2.5, ATR(c, 2), 1e-12)
	assert.Zero(t, ATR(c[:2], 2))
}

func TestVolumeRatio(t *testing.T) {
	vols := []float64{100, 100, 100, 400}
	assert.InDelta(t, 400.0/175.0, VolumeRatio(vols, 4), 1e-12)
	assert.Equal(t, 1.0, VolumeRatio(vols[:2], 4))
	assert.Equal(t, 1.0, VolumeRatio([]float64{0, 0}, 2), "zero mean is neutral")
}
