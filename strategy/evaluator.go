package strategy

import (
	"fmt"
	"log/slog"

	"github.com/signalcraft/engine/types"
)

// Evaluate runs one evaluation cycle: it consumes the candle window ending
// at index i, the strategy configuration and the current position state,
// and returns a fresh Signal. Evaluate never mutates the position; applying
// the signal is the caller's job via the position lifecycle.
//
// Evaluate is pure and safe for concurrent use as long as each invocation
// owns its candle slice and config.
//
// A non-nil error is returned only for configuration problems (unknown
// family, invalid parameters). Recoverable per-cycle conditions such as
// insufficient warm-up data or an undefined indicator reading produce a
// hold signal with a diagnostic reason instead.
func Evaluate(candles []types.Candle, i int, cfg Config, pos *types.PositionState) (types.Signal, error) {
	if cfg == nil {
		return types.Signal{}, fmt.Errorf("%w: nil config", ErrConfig)
	}
	if err := cfg.Validate(); err != nil {
		return types.Signal{}, err
	}
	if i < 0 || i >= len(candles) {
		return types.Signal{}, fmt.Errorf("%w: evaluation index %d outside series of %d candles", ErrConfig, i, len(candles))
	}
	if i+1 < cfg.Warmup() {
		return types.Hold(ReasonInsufficientData), nil
	}
	if pos == nil {
		pos = &types.PositionState{}
	}

	switch c := cfg.(type) {
	case EMAScalpingConfig:
		return evaluateEMAScalping(candles, i, c, pos), nil
	case CompositeSentimentConfig:
		return evaluateCompositeSentiment(candles, i, c, pos), nil
	case RangeReentryConfig:
		return evaluateRangeReentry(candles, i, c, pos), nil
	case ConditionTreeConfig:
		return evaluateConditionTree(candles, i, c, pos), nil
	default:
		return types.Signal{}, fmt.Errorf("%w: %T", ErrUnknownFamily, cfg)
	}
}

// invalidIndicatorHold logs the offending indicator and returns the
// diagnostic hold. A NaN or infinite reading must never be coerced into a
// numeric default that could trigger a false entry or exit.
func invalidIndicatorHold(name string, i int) types.Signal {
	slog.Warn("indicator produced an invalid value, holding this cycle",
		"indicator", name, "index", i)
	return types.Hold(fmt.Sprintf("%s: %s", ReasonInvalidIndicator, name))
}

func ptr(v float64) *float64 { return &v }
