package types

import "time"

// PositionSide identifies the direction of an open position
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// PartialClose records one partial exit taken while a position was open
type PartialClose struct {
	Level      float64   `json:"level"` // profit percentage that triggered the close
	ClosedSize float64   `json:"closed_size"`
	Profit     float64   `json:"profit"`
	Time       time.Time `json:"time"`
}

// PositionState is the mutable per-(user, strategy) position. It is owned
// exclusively by one pair and mutated only by position lifecycle transitions.
type PositionState struct {
	IsOpen         bool           `json:"is_open"`
	Side           PositionSide   `json:"side,omitempty"`
	EntryPrice     float64        `json:"entry_price,omitempty"`
	EntryTime      time.Time      `json:"entry_time,omitempty"`
	Size           float64        `json:"size,omitempty"`
	InitialSize    float64        `json:"initial_size,omitempty"`
	RangeHigh      float64        `json:"range_high,omitempty"`
	RangeLow       float64        `json:"range_low,omitempty"`
	LastSignalTime time.Time      `json:"last_signal_time,omitempty"`
	PartialCloses  []PartialClose `json:"partial_closes,omitempty"`
}

// ProfitPercent returns the unrealized move of the position against the
// given price as a fraction. The sign is flipped for shorts: a price drop
// below entry is positive profit on a short.
func (p *PositionState) ProfitPercent(price float64) float64 {
	if !p.IsOpen || p.EntryPrice == 0 {
		return 0
	}
	if p.Side == SideShort {
		return (p.EntryPrice - price) / p.EntryPrice
	}
	return (price - p.EntryPrice) / p.EntryPrice
}

// Age returns how long the position has been open as of now
func (p *PositionState) Age(now time.Time) time.Duration {
	if !p.IsOpen {
		return 0
	}
	return now.Sub(p.EntryTime)
}

// RealizedPartialProfit sums the profit already taken via partial closes
func (p *PositionState) RealizedPartialProfit() float64 {
	var total float64
	for _, pc := range p.PartialCloses {
		total += pc.Profit
	}
	return total
}
