package strategy

import (
	"fmt"

	"github.com/signalcraft/engine/indicator"
	"github.com/signalcraft/engine/types"
)

// evaluateEMAScalping implements the EMA-crossover scalping state machine.
//
// Flat: a bullish entry needs the fast EMA to cross strictly above the
// slow EMA (previous vs current sample, not just current state) with price
// closing above the slow EMA, and the enabled filters to pass according to
// the configured filter mode. Bearish entries mirror this when shorts are
// allowed.
//
// Open: exit conditions run in fixed precedence, first match wins:
// time exit, ATR stop-loss, ATR take-profit, reversal crossover.
func evaluateEMAScalping(candles []types.Candle, i int, cfg EMAScalpingConfig, pos *types.PositionState) types.Signal {
	closes := indicator.Closes(candles)
	fast := indicator.EMA(closes, cfg.FastPeriod)
	slow := indicator.EMA(closes, cfg.SlowPeriod)
	atr := indicator.ATR(candles, cfg.ATRPeriod)

	if !indicator.Defined(fast[i]) || !indicator.Defined(fast[i-1]) {
		return invalidIndicatorHold("ema_fast", i)
	}
	if !indicator.Defined(slow[i]) || !indicator.Defined(slow[i-1]) {
		return invalidIndicatorHold("ema_slow", i)
	}
	if !indicator.Defined(atr[i]) || atr[i] <= 0 {
		return invalidIndicatorHold("atr", i)
	}

	candle := candles[i]
	price := candle.Close

	if pos.IsOpen {
		if sig, ok := checkScalpingExit(candles, i, cfg, pos, fast, slow, atr); ok {
			return sig
		}
		return types.Hold("position open, no exit condition met")
	}

	var side types.PositionSide
	switch {
	case indicator.CrossAbove(fast, slow, i) && price > slow[i]:
		side = types.SideLong
	case cfg.AllowShorts && indicator.CrossBelow(fast, slow, i) && price < slow[i]:
		side = types.SideShort
	default:
		return types.Hold("no crossover")
	}

	base, floor := cfg.confidenceBounds()
	confidence := base
	filters := checkFilters(candles, i, side, cfg.Filters)
	if !filters.passed() {
		switch cfg.filterMode() {
		case FilterModeBlock:
			return types.Hold(fmt.Sprintf("entry filter failed: %v", filters.failed))
		case FilterModeConfidencePenalty:
			confidence = base - filters.penalty
			if confidence < floor {
				return types.Hold(fmt.Sprintf("confidence %.0f below floor %.0f after filters %v", confidence, floor, filters.failed))
			}
		}
	}

	stopDistance := atr[i] * cfg.StopLossATRMult
	targetDistance := atr[i] * cfg.TakeProfitATRMult

	sig := types.Signal{
		Confidence:   confidence,
		TimeToExpire: cfg.SignalExpiry,
		Timestamp:    candle.CloseTime,
	}
	if side == types.SideLong {
		sig.Type = types.SignalBuy
		sig.Reason = fmt.Sprintf("EMA%d crossed above EMA%d at %.4f", cfg.FastPeriod, cfg.SlowPeriod, price)
		sig.StopLoss = ptr(price - stopDistance)
		sig.TakeProfit = ptr(price + targetDistance)
	} else {
		sig.Type = types.SignalSell
		sig.Reason = fmt.Sprintf("EMA%d crossed below EMA%d at %.4f", cfg.FastPeriod, cfg.SlowPeriod, price)
		sig.StopLoss = ptr(price + stopDistance)
		sig.TakeProfit = ptr(price - targetDistance)
	}
	return sig
}

// checkScalpingExit evaluates the open-position exit ladder. The bool
// result reports whether an exit fired.
func checkScalpingExit(candles []types.Candle, i int, cfg EMAScalpingConfig, pos *types.PositionState, fast, slow, atr []float64) (types.Signal, bool) {
	candle := candles[i]
	price := candle.Close
	profitPct := pos.ProfitPercent(price)

	exit := func(reason types.ExitReason, detail string) (types.Signal, bool) {
		return exitSignal(pos, candle, reason, detail), true
	}

	if cfg.MaxHoldingTime > 0 && pos.Age(candle.CloseTime) >= cfg.MaxHoldingTime {
		return exit(types.ExitTimeLimit, fmt.Sprintf("position age reached %v", cfg.MaxHoldingTime))
	}

	// Stop and target distances are rebased on entry price so the breach
	// test compares like-for-like percentage moves.
	if pos.EntryPrice > 0 {
		stopPct := atr[i] * cfg.StopLossATRMult / pos.EntryPrice
		targetPct := atr[i] * cfg.TakeProfitATRMult / pos.EntryPrice
		if profitPct <= -stopPct {
			return exit(types.ExitStopLoss, fmt.Sprintf("loss %.2f%% breached ATR stop %.2f%%", profitPct*100, stopPct*100))
		}
		if profitPct >= targetPct {
			return exit(types.ExitTakeProfit, fmt.Sprintf("profit %.2f%% reached ATR target %.2f%%", profitPct*100, targetPct*100))
		}
	}

	if pos.Side == types.SideLong && indicator.CrossBelow(fast, slow, i) {
		return exit(types.ExitReversal, "fast EMA crossed back below slow EMA")
	}
	if pos.Side == types.SideShort && indicator.CrossAbove(fast, slow, i) {
		return exit(types.ExitReversal, "fast EMA crossed back above slow EMA")
	}
	return types.Signal{}, false
}
