package indicator

import (
	"math"

	"github.com/signalcraft/engine/types"
)

// ADXResult holds the directional movement output series
type ADXResult struct {
	ADX     []float64
	PlusDI  []float64
	MinusDI []float64
}

// ADX computes Wilder's average directional index with +DI/-DI. Smoothing
// uses Wilder's recursive form throughout. The ADX line needs 2*period
// samples before its first defined value.
func ADX(candles []types.Candle, period int) ADXResult {
	n := len(candles)
	res := ADXResult{
		ADX:     undefinedSeries(n),
		PlusDI:  undefinedSeries(n),
		MinusDI: undefinedSeries(n),
	}
	if period <= 0 || n <= 2*period {
		return res
	}

	tr := TrueRange(candles)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// First smoothed values are plain sums over the first period samples.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := undefinedSeries(n)
	setDI := func(i int) {
		if smTR == 0 {
			return
		}
		res.PlusDI[i] = 100 * smPlus / smTR
		res.MinusDI[i] = 100 * smMinus / smTR
		sum := res.PlusDI[i] + res.MinusDI[i]
		if sum != 0 {
			dx[i] = 100 * math.Abs(res.PlusDI[i]-res.MinusDI[i]) / sum
		}
	}
	setDI(period)

	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		setDI(i)
	}

	// ADX is the Wilder-smoothed DX line.
	var adxPrev float64
	count := 0
	for i := period; i < n; i++ {
		if !Defined(dx[i]) {
			continue
		}
		if count < period {
			adxPrev += dx[i]
			count++
			if count == period {
				adxPrev /= float64(period)
				res.ADX[i] = adxPrev
			}
			continue
		}
		adxPrev = (adxPrev*float64(period-1) + dx[i]) / float64(period)
		res.ADX[i] = adxPrev
	}
	return res
}
