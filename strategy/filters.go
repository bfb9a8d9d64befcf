package strategy

import (
	"fmt"
	"time"

	"github.com/signalcraft/engine/indicator"
	"github.com/signalcraft/engine/types"
)

// FilterConfig enables and tunes the entry filters shared by crossover
// strategies. Each filter can fail independently; how a failure affects
// the signal is decided by the strategy's FilterMode.
type FilterConfig struct {
	RSIEnabled    bool    `json:"rsi_enabled"`
	RSIPeriod     int     `json:"rsi_period"`
	RSIOverbought float64 `json:"rsi_overbought"` // long entries blocked above
	RSIOversold   float64 `json:"rsi_oversold"`   // short entries blocked below

	// TrendEnabled aligns entries with the global trend: longs require
	// price above the long-period EMA, shorts below.
	TrendEnabled bool `json:"trend_enabled"`
	TrendPeriod  int  `json:"trend_period"`

	// VolatilityEnabled caps entries when current ATR exceeds its trailing
	// average times VolatilityMaxMult.
	VolatilityEnabled  bool    `json:"volatility_enabled"`
	VolatilityLookback int     `json:"volatility_lookback"`
	VolatilityMaxMult  float64 `json:"volatility_max_mult"`

	// QuietHoursEnabled penalizes the static low-liquidity window
	// 22:00-06:00 UTC.
	QuietHoursEnabled bool `json:"quiet_hours_enabled"`
}

// Confidence points docked per failing filter in confidence-penalty mode.
const (
	penaltyRSI        = 15
	penaltyTrend      = 20
	penaltyVolatility = 15
	penaltyQuietHours = 10
)

// Validate checks filter parameters for the enabled filters
func (f FilterConfig) Validate() error {
	if f.RSIEnabled {
		if f.RSIPeriod <= 0 {
			return fmt.Errorf("%w: RSI filter period must be positive", ErrConfig)
		}
		if f.RSIOversold >= f.RSIOverbought {
			return fmt.Errorf("%w: RSI oversold %.1f must be below overbought %.1f", ErrConfig, f.RSIOversold, f.RSIOverbought)
		}
		if f.RSIOversold < 0 || f.RSIOverbought > 100 {
			return fmt.Errorf("%w: RSI zone [%.1f, %.1f] outside [0, 100]", ErrConfig, f.RSIOversold, f.RSIOverbought)
		}
	}
	if f.TrendEnabled && f.TrendPeriod <= 0 {
		return fmt.Errorf("%w: trend filter period must be positive", ErrConfig)
	}
	if f.VolatilityEnabled {
		if f.VolatilityLookback <= 0 {
			return fmt.Errorf("%w: volatility lookback must be positive", ErrConfig)
		}
		if f.VolatilityMaxMult <= 0 {
			return fmt.Errorf("%w: volatility multiplier must be positive", ErrConfig)
		}
	}
	return nil
}

func (f FilterConfig) maxPeriod() int {
	return maxInt([]int{f.RSIPeriod, f.TrendPeriod, f.VolatilityLookback})
}

// filterResult collects the filters that failed for one candidate entry
type filterResult struct {
	failed  []string
	penalty float64
}

func (r *filterResult) fail(name string, penalty float64) {
	r.failed = append(r.failed, name)
	r.penalty += penalty
}

func (r *filterResult) passed() bool {
	return len(r.failed) == 0
}

// checkFilters runs the enabled entry filters for a candidate entry at
// index i. Undefined indicator readings count as failures: a filter that
// cannot be computed must not wave an entry through.
func checkFilters(candles []types.Candle, i int, side types.PositionSide, f FilterConfig) filterResult {
	var res filterResult
	closes := indicator.Closes(candles)

	if f.RSIEnabled {
		rsi := indicator.RSI(closes, f.RSIPeriod)
		switch {
		case !indicator.Defined(rsi[i]):
			res.fail("rsi", penaltyRSI)
		case side == types.SideLong && rsi[i] >= f.RSIOverbought:
			res.fail("rsi", penaltyRSI)
		case side == types.SideShort && rsi[i] <= f.RSIOversold:
			res.fail("rsi", penaltyRSI)
		}
	}

	if f.TrendEnabled {
		trend := indicator.EMA(closes, f.TrendPeriod)
		switch {
		case !indicator.Defined(trend[i]):
			res.fail("trend", penaltyTrend)
		case side == types.SideLong && closes[i] < trend[i]:
			res.fail("trend", penaltyTrend)
		case side == types.SideShort && closes[i] > trend[i]:
			res.fail("trend", penaltyTrend)
		}
	}

	if f.VolatilityEnabled {
		atr := indicator.ATR(candles, f.VolatilityLookback)
		avgATR := indicator.SMA(atr, f.VolatilityLookback)
		if !indicator.Defined(atr[i]) || !indicator.Defined(avgATR[i]) {
			res.fail("volatility", penaltyVolatility)
		} else if atr[i] > avgATR[i]*f.VolatilityMaxMult {
			res.fail("volatility", penaltyVolatility)
		}
	}

	if f.QuietHoursEnabled && inQuietHours(candles[i].CloseTime) {
		res.fail("quiet hours", penaltyQuietHours)
	}
	return res
}

// inQuietHours reports whether t falls in the 22:00-06:00 UTC
// low-liquidity window.
func inQuietHours(t time.Time) bool {
	h := t.UTC().Hour()
	return h >= 22 || h < 6
}
