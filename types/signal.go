package types

import "time"

// SignalType identifies the direction of a trading signal
type SignalType string

const (
	SignalBuy  SignalType = "buy"
	SignalSell SignalType = "sell"
	SignalHold SignalType = "hold"
)

// Signal represents the outcome of one strategy evaluation. Signals are
// value types: produced fresh on every evaluation, never mutated.
type Signal struct {
	Type         SignalType    `json:"type"`
	Reason       string        `json:"reason"`
	StopLoss     *float64      `json:"stop_loss,omitempty"`
	TakeProfit   *float64      `json:"take_profit,omitempty"`
	Confidence   float64       `json:"confidence"` // 0-100
	TimeToExpire time.Duration `json:"time_to_expire,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
	// ExitReason is set when the signal closes an open position.
	ExitReason ExitReason `json:"exit_reason,omitempty"`
}

// Hold returns a hold signal with the given reason
func Hold(reason string) Signal {
	return Signal{Type: SignalHold, Reason: reason}
}

// IsHold reports whether the signal carries no actionable direction
func (s Signal) IsHold() bool {
	return s.Type == SignalHold || s.Type == ""
}

// Expired reports whether the signal is stale relative to now. A zero
// TimeToExpire means the signal never expires.
func (s Signal) Expired(now time.Time) bool {
	if s.TimeToExpire <= 0 || s.Timestamp.IsZero() {
		return false
	}
	return now.After(s.Timestamp.Add(s.TimeToExpire))
}
