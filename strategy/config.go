// Package strategy implements the per-family evaluation state machines that
// turn a candle window plus a position state into a trading signal, along
// with the position lifecycle those signals drive.
package strategy

import (
	"fmt"
	"time"

	"github.com/signalcraft/engine/indicator"
)

// Family identifies a strategy family
type Family string

const (
	FamilyEMAScalping        Family = "ema_scalping"
	FamilyCompositeSentiment Family = "composite_sentiment"
	FamilyRangeReentry       Family = "range_reentry"
	FamilyConditionTree      Family = "condition_tree"
)

// FilterMode controls how a failing entry filter affects a signal
type FilterMode string

const (
	// FilterModeBlock suppresses the signal entirely when any filter fails.
	FilterModeBlock FilterMode = "block"
	// FilterModeConfidencePenalty docks points from the base confidence per
	// failing filter and suppresses the signal only below the floor.
	FilterModeConfidencePenalty FilterMode = "confidence_penalty"
)

// Config is the closed set of per-family strategy configurations. Exactly
// one concrete type exists per family; the evaluator dispatches on the
// concrete type and rejects anything else as a configuration error.
// Configs are immutable for the duration of one evaluation or backtest run.
type Config interface {
	Family() Family
	// Validate fails fast on malformed parameters at activation time.
	Validate() error
	// Warmup returns the minimum number of candles required before the
	// strategy will emit anything other than hold.
	Warmup() int
}

// warmupSafetyMargin is added on top of the largest indicator period.
// EMA and ATR recursions need extra lookback beyond their nominal period
// before their values stabilize.
const warmupSafetyMargin = 10

// PartialLevel configures one partial-close step: when an open position's
// profit reaches ProfitPct, ClosePct of the remaining size is closed.
type PartialLevel struct {
	ProfitPct float64 `json:"profit_pct"` // fraction, e.g. 0.02 for 2%
	ClosePct  float64 `json:"close_pct"`  // fraction of remaining size
}

// EMAScalpingConfig configures the EMA-crossover scalping family. Entries
// require a strict fast/slow crossover with price positioned on the
// crossover side of the slow EMA; exits use time, ATR stop, ATR target and
// reversal in that order.
type EMAScalpingConfig struct {
	FastPeriod        int           `json:"fast_period"`
	SlowPeriod        int           `json:"slow_period"`
	ATRPeriod         int           `json:"atr_period"`
	StopLossATRMult   float64       `json:"stop_loss_atr_mult"`
	TakeProfitATRMult float64       `json:"take_profit_atr_mult"`
	MaxHoldingTime    time.Duration `json:"max_holding_time"`
	AllowShorts       bool          `json:"allow_shorts"`

	Filters    FilterConfig `json:"filters"`
	FilterMode FilterMode   `json:"filter_mode"`

	BaseConfidence  float64 `json:"base_confidence"`  // default 90
	ConfidenceFloor float64 `json:"confidence_floor"` // default 50

	PartialCloseLevels []PartialLevel `json:"partial_close_levels,omitempty"`
	SignalExpiry       time.Duration  `json:"signal_expiry,omitempty"`
}

// Family returns the strategy family
func (c EMAScalpingConfig) Family() Family { return FamilyEMAScalping }

// Validate checks the configuration for contradictions
func (c EMAScalpingConfig) Validate() error {
	if c.FastPeriod <= 0 || c.SlowPeriod <= 0 || c.ATRPeriod <= 0 {
		return fmt.Errorf("%w: periods must be positive (fast=%d slow=%d atr=%d)", ErrConfig, c.FastPeriod, c.SlowPeriod, c.ATRPeriod)
	}
	if c.FastPeriod >= c.SlowPeriod {
		return fmt.Errorf("%w: fast period %d must be shorter than slow period %d", ErrConfig, c.FastPeriod, c.SlowPeriod)
	}
	if c.StopLossATRMult <= 0 || c.TakeProfitATRMult <= 0 {
		return fmt.Errorf("%w: ATR multipliers must be positive", ErrConfig)
	}
	switch c.FilterMode {
	case FilterModeBlock, FilterModeConfidencePenalty, "":
	default:
		return fmt.Errorf("%w: unknown filter mode %q", ErrConfig, c.FilterMode)
	}
	base, floor := c.confidenceBounds()
	if floor >= base {
		return fmt.Errorf("%w: confidence floor %.0f must be below base %.0f", ErrConfig, floor, base)
	}
	if err := c.Filters.Validate(); err != nil {
		return err
	}
	return validatePartialLevels(c.PartialCloseLevels)
}

func (c EMAScalpingConfig) confidenceBounds() (base, floor float64) {
	base, floor = c.BaseConfidence, c.ConfidenceFloor
	if base == 0 {
		base = 90
	}
	if floor == 0 {
		floor = 50
	}
	return base, floor
}

func (c EMAScalpingConfig) filterMode() FilterMode {
	if c.FilterMode == "" {
		return FilterModeBlock
	}
	return c.FilterMode
}

// Warmup returns the candle count needed before evaluation
func (c EMAScalpingConfig) Warmup() int {
	periods := []int{c.SlowPeriod, c.ATRPeriod, c.Filters.maxPeriod()}
	return maxInt(periods) + warmupSafetyMargin
}

// CompositeSentimentConfig configures the composite sentiment score family.
// Entries trigger on the smoothed score crossing the long/short thresholds;
// an open position exits when the score crosses back through the exit
// threshold (mirrored for shorts).
type CompositeSentimentConfig struct {
	Weights         indicator.CompositeWeights `json:"weights"`
	RSIPeriod       int                        `json:"rsi_period"`
	SmoothingPeriod int                        `json:"smoothing_period"`

	LongThreshold    float64 `json:"long_threshold"`    // e.g. +40
	ShortThreshold   float64 `json:"short_threshold"`   // e.g. -40
	ExitThreshold    float64 `json:"exit_threshold"`    // magnitude, e.g. 10
	ExtremeThreshold float64 `json:"extreme_threshold"` // flagged, never blocking

	MaxHoldingTime time.Duration `json:"max_holding_time"`
	AllowShorts    bool          `json:"allow_shorts"`
	SignalExpiry   time.Duration `json:"signal_expiry,omitempty"`
}

// Family returns the strategy family
func (c CompositeSentimentConfig) Family() Family { return FamilyCompositeSentiment }

// Validate checks threshold ordering and the component weights
func (c CompositeSentimentConfig) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if c.RSIPeriod <= 0 || c.SmoothingPeriod <= 0 {
		return fmt.Errorf("%w: periods must be positive (rsi=%d smoothing=%d)", ErrConfig, c.RSIPeriod, c.SmoothingPeriod)
	}
	if c.LongThreshold <= 0 {
		return fmt.Errorf("%w: long threshold %.1f must be positive", ErrConfig, c.LongThreshold)
	}
	if c.ShortThreshold >= 0 {
		return fmt.Errorf("%w: short threshold %.1f must be negative", ErrConfig, c.ShortThreshold)
	}
	if c.ExitThreshold < 0 || c.ExitThreshold >= c.LongThreshold {
		return fmt.Errorf("%w: exit threshold %.1f must be in [0, long threshold)", ErrConfig, c.ExitThreshold)
	}
	if c.ExtremeThreshold != 0 && c.ExtremeThreshold <= c.LongThreshold {
		return fmt.Errorf("%w: extreme threshold %.1f must exceed long threshold %.1f", ErrConfig, c.ExtremeThreshold, c.LongThreshold)
	}
	return nil
}

// Warmup returns the candle count needed before evaluation. The composite
// score needs the slowest of its fixed internal components (MACD 26+9)
// plus the smoothing pass.
func (c CompositeSentimentConfig) Warmup() int {
	longest := maxInt([]int{26 + 9, 20, c.RSIPeriod, 14})
	return longest + c.SmoothingPeriod + warmupSafetyMargin
}

// RangeReentryConfig configures the range re-entry family: a rolling
// high/low window where a retest of the recent low inside a tolerance band
// is a long entry. Stops and targets derive from the captured range size
// and a risk:reward ratio rather than from ATR.
type RangeReentryConfig struct {
	WindowPeriod      int           `json:"window_period"`
	TolerancePct      float64       `json:"tolerance_pct"`       // fraction of price, e.g. 0.002
	StopRangeFraction float64       `json:"stop_range_fraction"` // stop distance as fraction of range size
	RiskReward        float64       `json:"risk_reward"`         // target = risk * ratio
	MaxHoldingTime    time.Duration `json:"max_holding_time"`
	SignalExpiry      time.Duration `json:"signal_expiry,omitempty"`
}

// Family returns the strategy family
func (c RangeReentryConfig) Family() Family { return FamilyRangeReentry }

// Validate checks the range parameters
func (c RangeReentryConfig) Validate() error {
	if c.WindowPeriod <= 1 {
		return fmt.Errorf("%w: window period %d must exceed 1", ErrConfig, c.WindowPeriod)
	}
	if c.TolerancePct <= 0 || c.TolerancePct >= 0.5 {
		return fmt.Errorf("%w: tolerance %.4f must be in (0, 0.5)", ErrConfig, c.TolerancePct)
	}
	if c.StopRangeFraction <= 0 || c.StopRangeFraction > 1 {
		return fmt.Errorf("%w: stop range fraction %.2f must be in (0, 1]", ErrConfig, c.StopRangeFraction)
	}
	if c.RiskReward <= 0 {
		return fmt.Errorf("%w: risk:reward %.2f must be positive", ErrConfig, c.RiskReward)
	}
	return nil
}

// Warmup returns the candle count needed before evaluation
func (c RangeReentryConfig) Warmup() int {
	return c.WindowPeriod + warmupSafetyMargin
}

func validatePartialLevels(levels []PartialLevel) error {
	prev := 0.0
	for i, l := range levels {
		if l.ProfitPct <= 0 || l.ClosePct <= 0 || l.ClosePct > 1 {
			return fmt.Errorf("%w: partial level %d has profit=%.4f close=%.4f", ErrConfig, i, l.ProfitPct, l.ClosePct)
		}
		if l.ProfitPct <= prev {
			return fmt.Errorf("%w: partial levels must be strictly ascending", ErrConfig)
		}
		prev = l.ProfitPct
	}
	return nil
}

func maxInt(values []int) int {
	m := 0
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}
