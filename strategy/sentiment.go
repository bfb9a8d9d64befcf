package strategy

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/signalcraft/engine/indicator"
	"github.com/signalcraft/engine/types"
)

// evaluateCompositeSentiment implements the composite-score family. Unlike
// the crossover strategies it triggers on the smoothed score crossing
// configured thresholds: above LongThreshold enters long, below
// ShortThreshold enters short, and an open position exits when the score
// crosses back through the exit threshold on its own side of zero.
//
// The extreme threshold only flags over-extended readings for telemetry;
// it never blocks an entry.
func evaluateCompositeSentiment(candles []types.Candle, i int, cfg CompositeSentimentConfig, pos *types.PositionState) types.Signal {
	score := indicator.CompositeScore(candles, cfg.Weights, cfg.RSIPeriod, cfg.SmoothingPeriod)
	if !indicator.Defined(score[i]) || !indicator.Defined(score[i-1]) {
		return invalidIndicatorHold("composite_score", i)
	}

	candle := candles[i]
	current := score[i]

	if cfg.ExtremeThreshold > 0 && math.Abs(current) >= cfg.ExtremeThreshold {
		slog.Info("composite score in extreme territory",
			"score", current, "threshold", cfg.ExtremeThreshold, "time", candle.CloseTime)
	}

	if pos.IsOpen {
		if cfg.MaxHoldingTime > 0 && pos.Age(candle.CloseTime) >= cfg.MaxHoldingTime {
			return exitSignal(pos, candle, types.ExitTimeLimit,
				fmt.Sprintf("position age reached %v", cfg.MaxHoldingTime))
		}
		if pos.Side == types.SideLong && indicator.CrossBelowLevel(score, cfg.ExitThreshold, i) {
			return exitSignal(pos, candle, types.ExitScoreCross,
				fmt.Sprintf("score %.1f crossed below exit threshold %.1f", current, cfg.ExitThreshold))
		}
		if pos.Side == types.SideShort && indicator.CrossAboveLevel(score, -cfg.ExitThreshold, i) {
			return exitSignal(pos, candle, types.ExitScoreCross,
				fmt.Sprintf("score %.1f crossed above exit threshold %.1f", current, -cfg.ExitThreshold))
		}
		return types.Hold("position open, score inside exit bounds")
	}

	switch {
	case indicator.CrossAboveLevel(score, cfg.LongThreshold, i):
		return types.Signal{
			Type:         types.SignalBuy,
			Reason:       fmt.Sprintf("composite score %.1f crossed above %.1f", current, cfg.LongThreshold),
			Confidence:   scoreConfidence(current),
			TimeToExpire: cfg.SignalExpiry,
			Timestamp:    candle.CloseTime,
		}
	case cfg.AllowShorts && indicator.CrossBelowLevel(score, cfg.ShortThreshold, i):
		return types.Signal{
			Type:         types.SignalSell,
			Reason:       fmt.Sprintf("composite score %.1f crossed below %.1f", current, cfg.ShortThreshold),
			Confidence:   scoreConfidence(current),
			TimeToExpire: cfg.SignalExpiry,
			Timestamp:    candle.CloseTime,
		}
	}
	return types.Hold("score inside entry thresholds")
}

// scoreConfidence maps a composite score magnitude onto [0, 100]
func scoreConfidence(score float64) float64 {
	c := math.Abs(score)
	if c > 100 {
		c = 100
	}
	return c
}

// exitSignal builds the closing signal for an open position
func exitSignal(pos *types.PositionState, candle types.Candle, reason types.ExitReason, detail string) types.Signal {
	sig := types.Signal{
		Reason:     detail,
		ExitReason: reason,
		Confidence: 100,
		Timestamp:  candle.CloseTime,
	}
	if pos.Side == types.SideLong {
		sig.Type = types.SignalSell
	} else {
		sig.Type = types.SignalBuy
	}
	return sig
}
