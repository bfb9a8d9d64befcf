package indicator

// MACDResult holds the three MACD output series
type MACDResult struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// MACD computes the moving average convergence/divergence: the difference
// between a fast and slow EMA, its signal-line EMA, and the histogram
// between the two. Indexes where any input leg is undefined stay undefined.
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) MACDResult {
	n := len(values)
	res := MACDResult{
		Line:      undefinedSeries(n),
		Signal:    undefinedSeries(n),
		Histogram: undefinedSeries(n),
	}
	fast := EMA(values, fastPeriod)
	slow := EMA(values, slowPeriod)
	for i := 0; i < n; i++ {
		if Defined(fast[i]) && Defined(slow[i]) {
			res.Line[i] = fast[i] - slow[i]
		}
	}
	res.Signal = EMA(res.Line, signalPeriod)
	for i := 0; i < n; i++ {
		if Defined(res.Line[i]) && Defined(res.Signal[i]) {
			res.Histogram[i] = res.Line[i] - res.Signal[i]
		}
	}
	return res
}
