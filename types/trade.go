package types

import "time"

// ExitReason explains why a position was closed
type ExitReason string

const (
	ExitStopLoss      ExitReason = "stop loss"
	ExitTakeProfit    ExitReason = "take profit"
	ExitTimeLimit     ExitReason = "time exit"
	ExitReversal      ExitReason = "reversal"
	ExitRangeTarget   ExitReason = "range target"
	ExitScoreCross    ExitReason = "score exit"
	ExitEndOfBacktest ExitReason = "end of backtest"
)

// Trade records one completed position, from entry to final exit.
// Immutable once recorded. Profit is net of fees and slippage and includes
// profit realized through partial closes during the position's lifetime.
type Trade struct {
	Side       PositionSide `json:"side"`
	EntryTime  time.Time    `json:"entry_time"`
	EntryPrice float64      `json:"entry_price"`
	ExitTime   time.Time    `json:"exit_time"`
	ExitPrice  float64      `json:"exit_price"`
	Quantity   float64      `json:"quantity"`
	Profit     float64      `json:"profit"`
	ExitReason ExitReason   `json:"exit_reason"`
}

// Duration returns the holding time of the trade
func (t Trade) Duration() time.Duration {
	return t.ExitTime.Sub(t.EntryTime)
}

// IsWin reports whether the trade closed with positive net profit
func (t Trade) IsWin() bool {
	return t.Profit > 0
}
