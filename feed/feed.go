// Package feed supplies candle series to the engine. A feed hides where
// candles come from: a live market data API, a CSV file on disk or a
// fixture in memory. All feeds return validated, chronologically ordered
// series.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/signalcraft/engine/types"
)

// Feed fetches the most recent candles for a symbol at a timeframe
type Feed interface {
	Fetch(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error)
}

// TimeframeDuration converts a timeframe label to its candle interval
func TimeframeDuration(timeframe string) (time.Duration, error) {
	switch strings.TrimSpace(timeframe) {
	case "1Min":
		return time.Minute, nil
	case "5Min":
		return 5 * time.Minute, nil
	case "15Min":
		return 15 * time.Minute, nil
	case "1H":
		return time.Hour, nil
	case "1D":
		return 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unrecognized timeframe: %s", timeframe)
	}
}

// Static is an in-memory feed serving a fixed series, used in tests and
// for replaying pre-loaded data
type Static struct {
	candles []types.Candle
}

// NewStatic creates a static feed over the given series
func NewStatic(candles []types.Candle) *Static {
	return &Static{candles: candles}
}

// Fetch returns up to limit of the most recent candles
func (s *Static) Fetch(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	if err := types.ValidateSeries(s.candles); err != nil {
		return nil, fmt.Errorf("static series: %w", err)
	}
	candles := s.candles
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	out := make([]types.Candle, len(candles))
	copy(out, candles)
	return out, nil
}
