package indicator

// RSI computes the relative strength index using Wilder's smoothing.
// The first average gain/loss is a plain mean of the first period deltas;
// subsequent averages use (prevAvg*(period-1)+current)/period. An average
// loss of exactly zero yields RSI = 100 rather than a division by zero.
// Output is always within [0, 100] where defined.
func RSI(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) <= period {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		if !Defined(values[i]) || !Defined(values[i-1]) {
			return out
		}
		delta := values[i] - values[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss += -delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(values); i++ {
		if !Defined(values[i]) || !Defined(values[i-1]) {
			continue
		}
		delta := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}
