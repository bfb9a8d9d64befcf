// Package backtest replays a candle series through a strategy evaluator
// and position lifecycle, producing a trade ledger and performance report.
// The replay is strictly sequential: candle order determines causality, so
// a single run must never be parallelized across the time axis.
// Independent runs are safe to execute concurrently.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/signalcraft/engine/strategy"
	"github.com/signalcraft/engine/types"
)

// ExecutionPrice selects which candle price fills orders
type ExecutionPrice string

const (
	ExecOnClose ExecutionPrice = "close"
	ExecOnOpen  ExecutionPrice = "open"
)

// Params configures one backtest run
type Params struct {
	InitialBalance  float64        `json:"initial_balance"`
	Leverage        float64        `json:"leverage"`          // default 1
	PositionSizePct float64        `json:"position_size_pct"` // fraction of balance per entry, default 1
	MakerFeeRate    float64        `json:"maker_fee_rate"`
	TakerFeeRate    float64        `json:"taker_fee_rate"`
	SlippageRate    float64        `json:"slippage_rate"`
	ExecutionPrice  ExecutionPrice `json:"execution_price"` // default close
}

// Validate checks the simulation parameters
func (p Params) Validate() error {
	if p.InitialBalance <= 0 {
		return fmt.Errorf("backtest: initial balance %.2f must be positive", p.InitialBalance)
	}
	if p.Leverage < 0 || p.PositionSizePct < 0 || p.PositionSizePct > 1 {
		return fmt.Errorf("backtest: leverage %.2f / position size %.2f out of range", p.Leverage, p.PositionSizePct)
	}
	if p.MakerFeeRate < 0 || p.TakerFeeRate < 0 || p.SlippageRate < 0 {
		return fmt.Errorf("backtest: fee and slippage rates must not be negative")
	}
	switch p.ExecutionPrice {
	case ExecOnClose, ExecOnOpen, "":
	default:
		return fmt.Errorf("backtest: unknown execution price policy %q", p.ExecutionPrice)
	}
	return nil
}

func (p Params) withDefaults() Params {
	if p.Leverage == 0 {
		p.Leverage = 1
	}
	if p.PositionSizePct == 0 {
		p.PositionSizePct = 1
	}
	if p.ExecutionPrice == "" {
		p.ExecutionPrice = ExecOnClose
	}
	return p
}

// Run replays the candle series through the strategy and returns the
// resulting report. Identical inputs always yield an identical report.
//
// Cancelling the context aborts the run between candle steps; the report
// accumulated so far is returned with Incomplete set rather than an error,
// so partial results are never corrupted or lost.
func Run(ctx context.Context, cfg strategy.Config, candles []types.Candle, params Params) (*Report, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backtest: nil strategy config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := types.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	params = params.withDefaults()

	report := &Report{
		InitialBalance: params.InitialBalance,
		Trades:         []types.Trade{},
	}
	balance := params.InitialBalance
	pos := &types.PositionState{}
	var pendingEntryFee float64

	start := cfg.Warmup() - 1
	if start < 0 {
		start = 0
	}
	if start >= len(candles) {
		slog.Warn("backtest series shorter than strategy warm-up",
			"candles", len(candles), "warmup", cfg.Warmup())
		report.finalize(balance)
		return report, nil
	}

	partialLevels := configPartialLevels(cfg)

	for i := start; i < len(candles); i++ {
		if ctx.Err() != nil {
			slog.Info("backtest cancelled, returning partial report",
				"processed", i-start, "total", len(candles)-start)
			report.Incomplete = true
			report.finalize(balance)
			return report, nil
		}
		candle := candles[i]
		price := executionBase(candle, params.ExecutionPrice)

		sig, err := strategy.Evaluate(candles, i, cfg, pos)
		if err != nil {
			return nil, err
		}

		if pos.IsOpen {
			// Partial-close overlay runs before the full-exit ladder so a
			// level reached on the same candle as an exit still books its
			// slice at the configured level.
			if len(partialLevels) > 0 {
				profitPct := pos.ProfitPercent(price)
				for {
					level := strategy.PendingPartial(pos, partialLevels, profitPct)
					if level == nil {
						break
					}
					execPrice := closeFill(price, pos.Side, params.SlippageRate)
					fee := execPrice * pos.Size * level.ClosePct * params.TakerFeeRate
					pc := strategy.ApplyPartialClose(pos, *level, execPrice, fee, candle.CloseTime)
					balance += pc.Profit
				}
			}
			if !sig.IsHold() && sig.ExitReason != "" {
				execPrice := closeFill(price, pos.Side, params.SlippageRate)
				fee := execPrice*pos.Size*params.TakerFeeRate + pendingEntryFee
				// Partial slices were credited when they closed; only the
				// remaining-size profit moves the balance here. Trade.Profit
				// still covers the whole lifetime.
				realized := pos.RealizedPartialProfit()
				trade := strategy.ClosePosition(pos, execPrice, fee, candle.CloseTime, sig.ExitReason)
				pendingEntryFee = 0
				balance += trade.Profit - realized
				report.Trades = append(report.Trades, trade)
			}
		} else if !sig.IsHold() {
			side := types.SideLong
			if sig.Type == types.SignalSell {
				side = types.SideShort
			}
			execPrice := entryFill(price, side, params.SlippageRate)
			qty := balance * params.PositionSizePct * params.Leverage / execPrice
			if qty > 0 {
				pendingEntryFee = execPrice * qty * params.TakerFeeRate
				strategy.OpenPosition(pos, side, execPrice, qty, candle.CloseTime)
				if rc, ok := cfg.(strategy.RangeReentryConfig); ok {
					pos.RangeHigh, pos.RangeLow = rc.Bounds(candles, i)
				}
			}
		}

		report.BalanceHistory = append(report.BalanceHistory, BalancePoint{
			Time:    candle.CloseTime,
			Balance: balance,
		})
	}

	// Force-close anything still open at the final candle so unrealized
	// P&L is never silently discarded.
	if pos.IsOpen {
		last := candles[len(candles)-1]
		execPrice := closeFill(last.Close, pos.Side, params.SlippageRate)
		fee := execPrice*pos.Size*params.TakerFeeRate + pendingEntryFee
		realized := pos.RealizedPartialProfit()
		trade := strategy.ClosePosition(pos, execPrice, fee, last.CloseTime, types.ExitEndOfBacktest)
		balance += trade.Profit - realized
		report.Trades = append(report.Trades, trade)
		report.BalanceHistory = append(report.BalanceHistory, BalancePoint{
			Time:    last.CloseTime,
			Balance: balance,
		})
	}

	report.finalize(balance)
	return report, nil
}

// executionBase returns the candle price orders fill against
func executionBase(c types.Candle, policy ExecutionPrice) float64 {
	if policy == ExecOnOpen {
		return c.Open
	}
	return c.Close
}

// entryFill applies slippage against the trader on entry: longs buy
// higher, shorts sell lower.
func entryFill(price float64, side types.PositionSide, slippage float64) float64 {
	if side == types.SideShort {
		return price * (1 - slippage)
	}
	return price * (1 + slippage)
}

// closeFill applies slippage against the trader on exit: closing a long
// sells lower, closing a short buys higher.
func closeFill(price float64, side types.PositionSide, slippage float64) float64 {
	if side == types.SideShort {
		return price * (1 + slippage)
	}
	return price * (1 - slippage)
}

// configPartialLevels extracts the partial-close ladder for families that
// support it.
func configPartialLevels(cfg strategy.Config) []strategy.PartialLevel {
	if c, ok := cfg.(strategy.EMAScalpingConfig); ok {
		return c.PartialCloseLevels
	}
	return nil
}
