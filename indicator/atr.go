package indicator

import (
	"math"

	"github.com/signalcraft/engine/types"
)

// TrueRange computes the per-candle true range:
// max(high-low, |high-prevClose|, |low-prevClose|). The very first entry
// has no previous close and equals high-low.
func TrueRange(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		if i == 0 {
			out[i] = c.High - c.Low
			continue
		}
		prevClose := candles[i-1].Close
		tr := c.High - c.Low
		if hc := math.Abs(c.High - prevClose); hc > tr {
			tr = hc
		}
		if lc := math.Abs(c.Low - prevClose); lc > tr {
			tr = lc
		}
		out[i] = tr
	}
	return out
}

// ATR computes the average true range as the EMA of the true range series
func ATR(candles []types.Candle, period int) []float64 {
	return EMA(TrueRange(candles), period)
}
