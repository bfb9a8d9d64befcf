package indicator

import (
	"math"

	"github.com/signalcraft/engine/types"
)

// StochasticResult holds the %K and %D output series
type StochasticResult struct {
	K []float64
	D []float64
}

// Stochastic computes the stochastic oscillator: %K locates the close
// within the trailing kPeriod high/low range, %D is an SMA of %K. A flat
// range (high == low across the window) yields a neutral 50 reading.
func Stochastic(candles []types.Candle, kPeriod, dPeriod int) StochasticResult {
	n := len(candles)
	res := StochasticResult{K: undefinedSeries(n)}
	if kPeriod <= 0 || n < kPeriod {
		res.D = undefinedSeries(n)
		return res
	}
	for i := kPeriod - 1; i < n; i++ {
		hh := candles[i].High
		ll := candles[i].Low
		for j := i - kPeriod + 1; j <= i; j++ {
			if candles[j].High > hh {
				hh = candles[j].High
			}
			if candles[j].Low < ll {
				ll = candles[j].Low
			}
		}
		if hh == ll {
			res.K[i] = 50
			continue
		}
		res.K[i] = 100 * (candles[i].Close - ll) / (hh - ll)
	}
	res.D = SMA(res.K, dPeriod)
	return res
}

// CCI computes the commodity channel index over the typical price with
// Lambert's 0.015 scaling constant. A zero mean deviation yields 0.
func CCI(candles []types.Candle, period int) []float64 {
	n := len(candles)
	out := undefinedSeries(n)
	if period <= 0 || n < period {
		return out
	}
	tp := make([]float64, n)
	for i, c := range candles {
		tp[i] = c.TypicalPrice()
	}
	sma := SMA(tp, period)
	for i := period - 1; i < n; i++ {
		if !Defined(sma[i]) {
			continue
		}
		meanDev := 0.0
		for j := i - period + 1; j <= i; j++ {
			meanDev += math.Abs(tp[j] - sma[i])
		}
		meanDev /= float64(period)
		if meanDev == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - sma[i]) / (0.015 * meanDev)
	}
	return out
}

// OBV computes on-balance volume: a running total that adds volume on up
// closes and subtracts it on down closes. Defined from the first index.
func OBV(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i := 1; i < len(candles); i++ {
		switch {
		case candles[i].Close > candles[i-1].Close:
			out[i] = out[i-1] + candles[i].Volume
		case candles[i].Close < candles[i-1].Close:
			out[i] = out[i-1] - candles[i].Volume
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// VWAP computes the running volume-weighted average price over the whole
// series. Entries before any volume has traded are undefined.
func VWAP(candles []types.Candle) []float64 {
	out := undefinedSeries(len(candles))
	var cumPV, cumVol float64
	for i, c := range candles {
		cumPV += c.TypicalPrice() * c.Volume
		cumVol += c.Volume
		if cumVol > 0 {
			out[i] = cumPV / cumVol
		}
	}
	return out
}
