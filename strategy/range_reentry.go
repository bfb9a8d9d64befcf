package strategy

import (
	"fmt"

	"github.com/signalcraft/engine/types"
)

// evaluateRangeReentry implements the range re-entry family. A rolling
// window tracks the recent high and low; when price retests the window low
// inside the tolerance band the strategy enters long. Stop and target come
// from the captured range size and the risk:reward ratio, not from ATR.
func evaluateRangeReentry(candles []types.Candle, i int, cfg RangeReentryConfig, pos *types.PositionState) types.Signal {
	candle := candles[i]
	price := candle.Close

	if pos.IsOpen {
		if cfg.MaxHoldingTime > 0 && pos.Age(candle.CloseTime) >= cfg.MaxHoldingTime {
			return exitSignal(pos, candle, types.ExitTimeLimit,
				fmt.Sprintf("position age reached %v", cfg.MaxHoldingTime))
		}
		stop, target := cfg.levels(pos.EntryPrice, pos.RangeHigh, pos.RangeLow)
		if price <= stop {
			return exitSignal(pos, candle, types.ExitStopLoss,
				fmt.Sprintf("price %.4f breached range stop %.4f", price, stop))
		}
		if price >= target {
			return exitSignal(pos, candle, types.ExitRangeTarget,
				fmt.Sprintf("price %.4f reached range target %.4f", price, target))
		}
		return types.Hold("position open, price between stop and target")
	}

	// Window excludes the current candle so the retest is measured against
	// an already-formed range.
	rangeHigh, rangeLow := rollingRange(candles, i, cfg.WindowPeriod)
	rangeSize := rangeHigh - rangeLow
	if rangeSize <= 0 {
		return types.Hold("no tradable range in window")
	}

	if price < rangeLow || price > rangeLow*(1+cfg.TolerancePct) {
		return types.Hold("price not retesting range low")
	}

	stop, target := cfg.levels(price, rangeHigh, rangeLow)
	return types.Signal{
		Type:         types.SignalBuy,
		Reason:       fmt.Sprintf("retest of range low %.4f (range %.4f-%.4f)", rangeLow, rangeLow, rangeHigh),
		StopLoss:     ptr(stop),
		TakeProfit:   ptr(target),
		Confidence:   75,
		TimeToExpire: cfg.SignalExpiry,
		Timestamp:    candle.CloseTime,
	}
}

// levels derives the stop and target from the captured range and entry
func (c RangeReentryConfig) levels(entry, rangeHigh, rangeLow float64) (stop, target float64) {
	rangeSize := rangeHigh - rangeLow
	risk := rangeSize * c.StopRangeFraction
	stop = entry - risk
	target = entry + risk*c.RiskReward
	return stop, target
}

// Bounds returns the rolling range the strategy would capture when
// entering at index i. The simulator and live monitor record these on the
// position so exit levels stay anchored to the range seen at entry.
func (c RangeReentryConfig) Bounds(candles []types.Candle, i int) (high, low float64) {
	return rollingRange(candles, i, c.WindowPeriod)
}

// rollingRange returns the high/low of the window of length period ending
// at index i-1.
func rollingRange(candles []types.Candle, i, period int) (high, low float64) {
	start := i - period
	if start < 0 {
		start = 0
	}
	high, low = candles[start].High, candles[start].Low
	for j := start; j < i; j++ {
		if candles[j].High > high {
			high = candles[j].High
		}
		if candles[j].Low < low {
			low = candles[j].Low
		}
	}
	return high, low
}
