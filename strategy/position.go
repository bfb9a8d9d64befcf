package strategy

import (
	"time"

	"github.com/signalcraft/engine/types"
)

// The position lifecycle is Flat -> Open(side) -> Flat, with an orthogonal
// partial-close overlay: while open, configured fractions of the position
// may be closed at profit levels without leaving the open state. A full
// close always produces exactly one Trade covering the whole lifetime, its
// profit net of fees and slippage and inclusive of partial-close profits.

// OpenPosition transitions a flat position to open. Range bounds are
// recorded when the entering strategy tracks a range.
func OpenPosition(pos *types.PositionState, side types.PositionSide, execPrice, size float64, t time.Time) {
	pos.IsOpen = true
	pos.Side = side
	pos.EntryPrice = execPrice
	pos.EntryTime = t
	pos.Size = size
	pos.InitialSize = size
	pos.LastSignalTime = t
	pos.PartialCloses = nil
}

// PendingPartial returns the first configured level whose profit threshold
// the position has reached but not yet taken, or nil. Levels are matched
// by their profit percentage.
func PendingPartial(pos *types.PositionState, levels []PartialLevel, profitPct float64) *PartialLevel {
	for idx := range levels {
		l := levels[idx]
		if profitPct < l.ProfitPct {
			continue
		}
		taken := false
		for _, pc := range pos.PartialCloses {
			if pc.Level == l.ProfitPct {
				taken = true
				break
			}
		}
		if !taken {
			return &l
		}
	}
	return nil
}

// ApplyPartialClose closes level.ClosePct of the remaining size at
// execPrice, appending the realized slice to the position's history and
// reducing the remaining size proportionally. The fee argument is the
// total cost charged on the closed slice; the recorded profit is net.
// The position stays open.
func ApplyPartialClose(pos *types.PositionState, level PartialLevel, execPrice, fee float64, t time.Time) types.PartialClose {
	closedSize := pos.Size * level.ClosePct
	profit := closedSize*(execPrice-pos.EntryPrice) - fee
	if pos.Side == types.SideShort {
		profit = closedSize*(pos.EntryPrice-execPrice) - fee
	}
	pc := types.PartialClose{
		Level:      level.ProfitPct,
		ClosedSize: closedSize,
		Profit:     profit,
		Time:       t,
	}
	pos.PartialCloses = append(pos.PartialCloses, pc)
	pos.Size -= closedSize
	return pc
}

// ClosePosition fully closes an open position, returning the single Trade
// record for its lifetime. The fee argument covers the remaining size; the
// trade profit includes profit already realized through partial closes.
// The position is reset to flat.
func ClosePosition(pos *types.PositionState, execPrice, fee float64, t time.Time, reason types.ExitReason) types.Trade {
	profit := pos.Size*(execPrice-pos.EntryPrice) - fee
	if pos.Side == types.SideShort {
		profit = pos.Size*(pos.EntryPrice-execPrice) - fee
	}
	trade := types.Trade{
		Side:       pos.Side,
		EntryTime:  pos.EntryTime,
		EntryPrice: pos.EntryPrice,
		ExitTime:   t,
		ExitPrice:  execPrice,
		Quantity:   pos.InitialSize,
		Profit:     profit + pos.RealizedPartialProfit(),
		ExitReason: reason,
	}
	*pos = types.PositionState{LastSignalTime: t}
	return trade
}
