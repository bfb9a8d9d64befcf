package types

import (
	"testing"
	"time"
)

func validCandle(open time.Time) Candle {
	return Candle{
		OpenTime: open, CloseTime: open.Add(time.Minute),
		Open: 100, High: 102, Low: 99, Close: 101, Volume: 50,
	}
}

func TestCandle_Validate(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	if err := validCandle(base).Validate(); err != nil {
		t.Errorf("Expected valid candle, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Candle)
	}{
		{"high below low", func(c *Candle) { c.High = 98 }},
		{"close above high", func(c *Candle) { c.Close = 103 }},
		{"open below low", func(c *Candle) { c.Open = 98 }},
		{"negative volume", func(c *Candle) { c.Volume = -1 }},
		{"open time after close time", func(c *Candle) { c.OpenTime = c.CloseTime.Add(time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandle(base)
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}

func TestValidateSeries_Ordering(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	a := validCandle(base)
	b := validCandle(base.Add(time.Minute))

	if err := ValidateSeries([]Candle{a, b}); err != nil {
		t.Errorf("Expected ordered series to validate, got %v", err)
	}
	if err := ValidateSeries([]Candle{b, a}); err == nil {
		t.Error("Expected error for out-of-order series")
	}
}

func TestSignal_Expired(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	s := Signal{Type: SignalBuy, Timestamp: now.Add(-10 * time.Minute), TimeToExpire: 5 * time.Minute}
	if !s.Expired(now) {
		t.Error("Expected signal past its TTL to be expired")
	}

	s.TimeToExpire = 0
	if s.Expired(now) {
		t.Error("Expected zero TTL to never expire")
	}

	s.TimeToExpire = 15 * time.Minute
	if s.Expired(now) {
		t.Error("Expected signal within its TTL to be fresh")
	}
}
