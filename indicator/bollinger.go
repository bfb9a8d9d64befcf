package indicator

import "math"

// BollingerResult holds the three Bollinger band series
type BollingerResult struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// Bollinger computes Bollinger bands: an SMA middle band with upper and
// lower bands offset by stdDevs population standard deviations (divide by
// period, not period-1) over the same window.
func Bollinger(values []float64, period int, stdDevs float64) BollingerResult {
	n := len(values)
	res := BollingerResult{
		Upper:  undefinedSeries(n),
		Middle: SMA(values, period),
		Lower:  undefinedSeries(n),
	}
	if period <= 0 || n < period {
		return res
	}
	for i := period - 1; i < n; i++ {
		mean := res.Middle[i]
		if !Defined(mean) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(period))
		res.Upper[i] = mean + stdDevs*sd
		res.Lower[i] = mean - stdDevs*sd
	}
	return res
}

// PercentB maps a price to its position within the bands: 0 at the lower
// band, 1 at the upper. Undefined when the band width is zero.
func (b BollingerResult) PercentB(values []float64) []float64 {
	out := undefinedSeries(len(values))
	for i := range values {
		if !Defined(b.Upper[i]) || !Defined(b.Lower[i]) || !Defined(values[i]) {
			continue
		}
		width := b.Upper[i] - b.Lower[i]
		if width == 0 {
			continue
		}
		out[i] = (values[i] - b.Lower[i]) / width
	}
	return out
}
