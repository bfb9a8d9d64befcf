package strategy

import (
	"testing"
	"time"

	"github.com/signalcraft/engine/types"
)

func sentimentConfig() CompositeSentimentConfig {
	return CompositeSentimentConfig{
		Weights:         defaultWeightsForTest(),
		RSIPeriod:       14,
		SmoothingPeriod: 3,
		LongThreshold:   5,
		ShortThreshold:  -5,
		ExitThreshold:   2,
		AllowShorts:     true,
	}
}

// declineThenRally produces a long downtrend followed by a sustained rally
// so the composite score swings from negative to strongly positive.
func declineThenRally() []types.Candle {
	closes := flatThenJump(300, 0, -1.5, 60)
	closes = append(closes, flatThenJump(closes[len(closes)-1], 0, 2, 60)...)
	return candlesFromCloses(closes)
}

func TestCompositeSentiment_ThresholdCrossingEntersLong(t *testing.T) {
	cfg := sentimentConfig()
	candles := declineThenRally()

	sawBuy := false
	for i := cfg.Warmup(); i < len(candles); i++ {
		sig, err := Evaluate(candles, i, cfg, &types.PositionState{})
		if err != nil {
			t.Fatalf("Evaluate returned error at %d: %v", i, err)
		}
		if sig.Type == types.SignalBuy {
			sawBuy = true
			if sig.Confidence <= 0 || sig.Confidence > 100 {
				t.Errorf("confidence = %v, want within (0, 100]", sig.Confidence)
			}
			break
		}
	}
	if !sawBuy {
		t.Fatal("score never crossed the long threshold during the rally")
	}
}

func TestCompositeSentiment_NoReEntryWhileAboveThreshold(t *testing.T) {
	cfg := sentimentConfig()
	candles := declineThenRally()

	// Find the first buy, then verify the very next candle does not fire
	// again while the score stays above the threshold.
	for i := cfg.Warmup(); i < len(candles)-1; i++ {
		sig, err := Evaluate(candles, i, cfg, &types.PositionState{})
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if sig.Type != types.SignalBuy {
			continue
		}
		next, err := Evaluate(candles, i+1, cfg, &types.PositionState{})
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if next.Type == types.SignalBuy {
			t.Error("threshold crossing fired on consecutive candles; crossing must be strict")
		}
		return
	}
	t.Fatal("no buy signal found")
}

func TestCompositeSentiment_TimeExit(t *testing.T) {
	cfg := sentimentConfig()
	cfg.MaxHoldingTime = 10 * time.Minute
	candles := declineThenRally()
	i := len(candles) - 1

	pos := &types.PositionState{
		IsOpen:     true,
		Side:       types.SideLong,
		EntryPrice: candles[60].Close,
		EntryTime:  candles[60].OpenTime,
		Size:       1,
	}
	sig, err := Evaluate(candles, i, cfg, pos)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if sig.ExitReason != types.ExitTimeLimit {
		t.Errorf("exit reason = %q, want time exit", sig.ExitReason)
	}
}

func TestCompositeSentiment_ScoreExitClosesLong(t *testing.T) {
	cfg := sentimentConfig()
	// Rally then decline: an open long must exit when the score falls back
	// through the exit threshold.
	closes := flatThenJump(100, 0, 2, 60)
	closes = append(closes, flatThenJump(closes[len(closes)-1], 0, -2, 60)...)
	candles := candlesFromCloses(closes)

	pos := &types.PositionState{
		IsOpen:     true,
		Side:       types.SideLong,
		EntryPrice: candles[55].Close,
		EntryTime:  candles[55].OpenTime,
		Size:       1,
	}
	sawExit := false
	for i := 61; i < len(candles); i++ {
		sig, err := Evaluate(candles, i, cfg, pos)
		if err != nil {
			t.Fatalf("Evaluate returned error: %v", err)
		}
		if sig.ExitReason == types.ExitScoreCross {
			sawExit = true
			if sig.Type != types.SignalSell {
				t.Errorf("score exit type = %v, want sell to close long", sig.Type)
			}
			break
		}
	}
	if !sawExit {
		t.Fatal("open long never exited on the score crossing back through the exit threshold")
	}
}
