// Package indicator implements stateless numeric transforms over candle
// series. Every function returns a series of the same length as its input,
// with entries before the warm-up period marked undefined (NaN). Callers
// must check Defined before consuming a value; treating an undefined entry
// as zero is never correct.
package indicator

import (
	"math"

	"github.com/signalcraft/engine/types"
)

// Undefined returns the marker used for warm-up entries
func Undefined() float64 {
	return math.NaN()
}

// Defined reports whether an indicator value is usable. NaN and infinite
// readings are both treated as undefined.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// undefinedSeries allocates a series of the given length, all undefined
func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Closes extracts the close prices from a candle series
func Closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high prices from a candle series
func Highs(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low prices from a candle series
func Lows(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts the volumes from a candle series
func Volumes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// CrossAbove reports whether series a crossed strictly above series b at
// index i, comparing the previous sample against the current one. Both
// samples of both series must be defined; an undefined input never counts
// as a crossing.
func CrossAbove(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if !Defined(a[i-1]) || !Defined(a[i]) || !Defined(b[i-1]) || !Defined(b[i]) {
		return false
	}
	return a[i-1] <= b[i-1] && a[i] > b[i]
}

// CrossBelow reports whether series a crossed strictly below series b at
// index i.
func CrossBelow(a, b []float64, i int) bool {
	if i < 1 || i >= len(a) || i >= len(b) {
		return false
	}
	if !Defined(a[i-1]) || !Defined(a[i]) || !Defined(b[i-1]) || !Defined(b[i]) {
		return false
	}
	return a[i-1] >= b[i-1] && a[i] < b[i]
}

// CrossAboveLevel reports whether a series crossed strictly above a fixed
// level at index i.
func CrossAboveLevel(a []float64, level float64, i int) bool {
	if i < 1 || i >= len(a) || !Defined(a[i-1]) || !Defined(a[i]) {
		return false
	}
	return a[i-1] <= level && a[i] > level
}

// CrossBelowLevel reports whether a series crossed strictly below a fixed
// level at index i.
func CrossBelowLevel(a []float64, level float64, i int) bool {
	if i < 1 || i >= len(a) || !Defined(a[i-1]) || !Defined(a[i]) {
		return false
	}
	return a[i-1] >= level && a[i] < level
}

// clamp bounds v to [lo, hi]
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
