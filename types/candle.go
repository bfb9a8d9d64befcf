package types

import (
	"fmt"
	"time"
)

// Candle represents a single OHLCV price bar for a fixed time interval.
// Candles are immutable once produced and ordered ascending by OpenTime.
type Candle struct {
	OpenTime  time.Time `json:"open_time"`
	CloseTime time.Time `json:"close_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Validate checks the internal consistency of a candle
func (c Candle) Validate() error {
	if !c.OpenTime.Before(c.CloseTime) {
		return fmt.Errorf("candle open time %v is not before close time %v", c.OpenTime, c.CloseTime)
	}
	body := c.Open
	if c.Close > body {
		body = c.Close
	}
	if c.High < body {
		return fmt.Errorf("candle high %.8f below body high %.8f", c.High, body)
	}
	body = c.Open
	if c.Close < body {
		body = c.Close
	}
	if c.Low > body {
		return fmt.Errorf("candle low %.8f above body low %.8f", c.Low, body)
	}
	if c.Volume < 0 {
		return fmt.Errorf("candle volume %.8f is negative", c.Volume)
	}
	return nil
}

// TypicalPrice returns (high + low + close) / 3
func (c Candle) TypicalPrice() float64 {
	return (c.High + c.Low + c.Close) / 3
}

// ValidateSeries checks that candles are internally consistent and
// strictly ascending by open time.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d: %w", i, err)
		}
		if i > 0 && !candles[i-1].OpenTime.Before(c.OpenTime) {
			return fmt.Errorf("candle %d: open time %v not after previous %v", i, c.OpenTime, candles[i-1].OpenTime)
		}
	}
	return nil
}
