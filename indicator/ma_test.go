package indicator

import (
	"math"
	"testing"
)

func constantSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMA_Warmup(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	if len(out) != len(values) {
		t.Fatalf("SMA length = %d, want %d", len(out), len(values))
	}
	for i := 0; i < 2; i++ {
		if Defined(out[i]) {
			t.Errorf("SMA[%d] = %v, want undefined during warm-up", i, out[i])
		}
	}
	if out[2] != 2 {
		t.Errorf("SMA[2] = %v, want 2", out[2])
	}
	if out[4] != 4 {
		t.Errorf("SMA[4] = %v, want 4", out[4])
	}
}

func TestSMA_ShortSeries(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for i, v := range out {
		if Defined(v) {
			t.Errorf("SMA[%d] = %v, want undefined for series shorter than period", i, v)
		}
	}
}

func TestEMA_ConstantSeriesConvergesExactly(t *testing.T) {
	const v = 42.5
	out := EMA(constantSeries(v, 50), 10)

	for i := 0; i < 9; i++ {
		if Defined(out[i]) {
			t.Errorf("EMA[%d] defined during warm-up", i)
		}
	}
	for i := 9; i < 50; i++ {
		if out[i] != v {
			t.Errorf("EMA[%d] = %v, want exactly %v on a constant series", i, out[i], v)
		}
	}
}

func TestEMA_SeedIsSimpleAverage(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	out := EMA(values, 5)

	if out[4] != 3 {
		t.Errorf("EMA seed = %v, want 3 (simple average of first 5 values)", out[4])
	}
	// Next value follows the recursion with multiplier 2/(period+1).
	want := 3 + (2.0/6.0)*(6-3)
	if math.Abs(out[5]-want) > 1e-12 {
		t.Errorf("EMA[5] = %v, want %v", out[5], want)
	}
}

func TestEMA_SkipAndResume(t *testing.T) {
	values := []float64{10, 10, 10, math.NaN(), 10, 10}
	out := EMA(values, 3)

	if out[2] != 10 {
		t.Fatalf("EMA[2] = %v, want 10", out[2])
	}
	if Defined(out[3]) {
		t.Errorf("EMA[3] = %v, want undefined for NaN input", out[3])
	}
	// Recursion resumes from the last good value rather than staying NaN.
	if out[4] != 10 || out[5] != 10 {
		t.Errorf("EMA resumed values = %v, %v, want 10, 10", out[4], out[5])
	}
}

func TestEMA_LeadingUndefinedInputs(t *testing.T) {
	values := []float64{math.NaN(), math.NaN(), 5, 5, 5, 5}
	out := EMA(values, 3)

	for i := 0; i < 4; i++ {
		if Defined(out[i]) {
			t.Errorf("EMA[%d] defined before enough valid samples", i)
		}
	}
	if out[4] != 5 {
		t.Errorf("EMA[4] = %v, want 5 (seeded from first 3 valid values)", out[4])
	}
}

func TestWMA_WeightsRecentSamplesHigher(t *testing.T) {
	out := WMA([]float64{1, 2, 3}, 3)
	// (1*1 + 2*2 + 3*3) / 6
	want := 14.0 / 6.0
	if math.Abs(out[2]-want) > 1e-12 {
		t.Errorf("WMA[2] = %v, want %v", out[2], want)
	}
}
