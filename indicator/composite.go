package indicator

import (
	"fmt"

	"github.com/signalcraft/engine/types"
)

// CompositeWeights controls how much each normalized component contributes
// to the composite sentiment score. Weights must be non-negative and sum
// to a positive total.
type CompositeWeights struct {
	Momentum   float64 `json:"momentum"`   // RSI based
	Trend      float64 `json:"trend"`      // MACD histogram based
	Volatility float64 `json:"volatility"` // Bollinger %B based
	Cycle      float64 `json:"cycle"`      // stochastic based
}

// Validate checks that the weights form a usable blend
func (w CompositeWeights) Validate() error {
	for name, v := range map[string]float64{
		"momentum": w.Momentum, "trend": w.Trend,
		"volatility": w.Volatility, "cycle": w.Cycle,
	} {
		if v < 0 {
			return fmt.Errorf("composite weight %s is negative: %f", name, v)
		}
	}
	if w.Total() <= 0 {
		return fmt.Errorf("composite weights sum to %f, need a positive total", w.Total())
	}
	return nil
}

// Total returns the sum of all weights
func (w CompositeWeights) Total() float64 {
	return w.Momentum + w.Trend + w.Volatility + w.Cycle
}

// DefaultCompositeWeights returns an even blend of all four components
func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{Momentum: 1, Trend: 1, Volatility: 1, Cycle: 1}
}

// CompositeScore computes a blended market sentiment score in [-100, +100].
// Each raw indicator is normalized onto [-100, +100], the components are
// combined with the given weights, and the blend is smoothed with a short
// EMA. The smoothing pass is mandatory: the raw blend is too noisy for
// threshold-crossing entries and would whipsaw on nearly every candle.
func CompositeScore(candles []types.Candle, weights CompositeWeights, rsiPeriod, smoothPeriod int) []float64 {
	n := len(candles)
	closes := Closes(candles)

	rsi := RSI(closes, rsiPeriod)
	macd := MACD(closes, 12, 26, 9)
	bb := Bollinger(closes, 20, 2)
	pb := bb.PercentB(closes)
	stoch := Stochastic(candles, 14, 3)
	atr := ATR(candles, 14)

	raw := undefinedSeries(n)
	total := weights.Total()
	for i := 0; i < n; i++ {
		if !Defined(rsi[i]) || !Defined(macd.Histogram[i]) || !Defined(pb[i]) ||
			!Defined(stoch.K[i]) || !Defined(atr[i]) || atr[i] == 0 {
			continue
		}
		momentum := (rsi[i] - 50) * 2
		// Histogram scaled by ATR so the trend component is comparable
		// across price regimes, then clamped onto the common range.
		trend := clamp(100*macd.Histogram[i]/atr[i], -100, 100)
		vol := clamp((pb[i]-0.5)*200, -100, 100)
		cycle := (stoch.K[i] - 50) * 2

		raw[i] = (weights.Momentum*momentum + weights.Trend*trend +
			weights.Volatility*vol + weights.Cycle*cycle) / total
	}
	smoothed := EMA(raw, smoothPeriod)
	for i := range smoothed {
		if Defined(smoothed[i]) {
			smoothed[i] = clamp(smoothed[i], -100, 100)
		}
	}
	return smoothed
}
