package indicator

// SMA computes the simple moving average over the trailing window. The
// first period-1 entries are undefined. A window containing any undefined
// value yields an undefined output for that index.
func SMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !Defined(values[j]) {
				ok = false
				break
			}
			sum += values[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average with multiplier 2/(period+1).
// The seed is the simple average of the first period defined values.
//
// An undefined input produces an undefined output at that index but does
// not poison the rest of the series: the recursion resumes from the last
// good value once defined inputs return. This skip-and-resume behavior is
// deliberate; a single bad sample must not blank every later reading.
func EMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	mult := 2.0 / float64(period+1)

	var prev, seedSum float64
	seedCount := 0
	seeded := false
	for i, v := range values {
		if !Defined(v) {
			continue
		}
		if !seeded {
			seedSum += v
			seedCount++
			if seedCount == period {
				prev = seedSum / float64(period)
				out[i] = prev
				seeded = true
			}
			continue
		}
		prev += mult * (v - prev)
		out[i] = prev
	}
	return out
}

// WMA computes a linearly weighted moving average, most recent sample
// weighted highest.
func WMA(values []float64, period int) []float64 {
	out := undefinedSeries(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	denom := float64(period*(period+1)) / 2
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		ok := true
		for j := 0; j < period; j++ {
			v := values[i-period+1+j]
			if !Defined(v) {
				ok = false
				break
			}
			sum += v * float64(j+1)
		}
		if ok {
			out[i] = sum / denom
		}
	}
	return out
}
