package strategy

import (
	"time"

	"github.com/signalcraft/engine/indicator"
	"github.com/signalcraft/engine/types"
)

func defaultWeightsForTest() indicator.CompositeWeights {
	return indicator.DefaultCompositeWeights()
}

// candlesFromCloses builds a synthetic candle series around the given
// closes with a fixed 2-point range per candle, one minute apart.
func candlesFromCloses(closes []float64) []types.Candle {
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	out := make([]types.Candle, len(closes))
	for i, c := range closes {
		out[i] = types.Candle{
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    1000,
		}
	}
	return out
}

// flatThenJump returns n flat closes at base followed by m closes stepping
// up by step each candle.
func flatThenJump(base float64, n int, step float64, m int) []float64 {
	out := make([]float64, 0, n+m)
	for i := 0; i < n; i++ {
		out = append(out, base)
	}
	v := base
	for i := 0; i < m; i++ {
		v += step
		out = append(out, v)
	}
	return out
}

func scalpingConfig() EMAScalpingConfig {
	return EMAScalpingConfig{
		FastPeriod:        5,
		SlowPeriod:        20,
		ATRPeriod:         14,
		StopLossATRMult:   2,
		TakeProfitATRMult: 3,
		AllowShorts:       true,
	}
}
