package feed

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/signalcraft/engine/types"
)

func TestReadCandles(t *testing.T) {
	data := strings.Join([]string{
		"timestamp,open,high,low,close,volume",
		"1709287200000,100,101,99,100.5,1200",
		"1709287260000,100.5,102,100,101.5,900",
	}, "\n")

	candles, err := ReadCandles(strings.NewReader(data), time.Minute)
	if err != nil {
		t.Fatalf("ReadCandles returned error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}

	first := candles[0]
	if first.Open != 100 || first.High != 101 || first.Low != 99 || first.Close != 100.5 || first.Volume != 1200 {
		t.Errorf("Unexpected first candle values: %+v", first)
	}
	wantOpen := time.UnixMilli(1709287200000).UTC()
	if !first.OpenTime.Equal(wantOpen) {
		t.Errorf("Expected open time %v, got %v", wantOpen, first.OpenTime)
	}
	if !first.CloseTime.Equal(wantOpen.Add(time.Minute)) {
		t.Errorf("Expected close time one interval after open, got %v", first.CloseTime)
	}
}

func TestReadCandles_RFC3339Timestamps(t *testing.T) {
	data := "2024-03-01T10:00:00Z,100,101,99,100.5,1200\n"
	candles, err := ReadCandles(strings.NewReader(data), 5*time.Minute)
	if err != nil {
		t.Fatalf("ReadCandles returned error: %v", err)
	}
	if len(candles) != 1 {
		t.Fatalf("Expected 1 candle, got %d", len(candles))
	}
	want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if !candles[0].OpenTime.Equal(want) {
		t.Errorf("Expected open time %v, got %v", want, candles[0].OpenTime)
	}
}

func TestReadCandles_HeaderDetection(t *testing.T) {
	// a header-only file yields an empty series
	candles, err := ReadCandles(strings.NewReader("timestamp,open,high,low,close,volume\n"), time.Minute)
	if err != nil {
		t.Fatalf("ReadCandles returned error: %v", err)
	}
	if len(candles) != 0 {
		t.Fatalf("Expected 0 candles, got %d", len(candles))
	}

	// a first row with numeric prices but a broken timestamp is a data
	// row, not a header: it must error instead of being skipped
	if _, err := ReadCandles(strings.NewReader("not-a-time,100,101,99,100,10\n"), time.Minute); err == nil {
		t.Error("Expected error for malformed first data row, got nil")
	}
}

func TestReadCandles_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"short row", "1709287200000,100,101,99\n"},
		{"bad number", "1709287200000,abc,101,99,100,10\n"},
		{"bad timestamp", "not-a-time,100,101,99,100,10\n"},
		{"out of order", "1709287260000,100,101,99,100,10\n1709287200000,100,101,99,100,10\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadCandles(strings.NewReader(tt.data), time.Minute); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestStatic_FetchLimit(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var candles []types.Candle
	for i := 0; i < 5; i++ {
		open := base.Add(time.Duration(i) * time.Minute)
		candles = append(candles, types.Candle{
			OpenTime: open, CloseTime: open.Add(time.Minute),
			Open: 100, High: 101, Low: 99, Close: 100, Volume: 10,
		})
	}

	got, err := NewStatic(candles).Fetch(context.Background(), "BTCUSD", "1Min", 3)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Expected 3 candles, got %d", len(got))
	}
	if !got[0].OpenTime.Equal(candles[2].OpenTime) {
		t.Errorf("Expected the most recent candles, got first open %v", got[0].OpenTime)
	}
}

type fakeBars struct {
	bars []marketdata.Bar
}

func (f *fakeBars) GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error) {
	return f.bars, nil
}

func TestAlpacaFeed_Fetch(t *testing.T) {
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	fake := &fakeBars{bars: []marketdata.Bar{
		{Timestamp: base, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 500},
		{Timestamp: base.Add(time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101, Volume: 700},
	}}
	f := &AlpacaFeed{client: fake}

	candles, err := f.Fetch(context.Background(), "AAPL", "1Min", 2)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("Expected 2 candles, got %d", len(candles))
	}
	if candles[1].Close != 101 {
		t.Errorf("Expected close 101, got %v", candles[1].Close)
	}
	if !candles[0].CloseTime.Equal(base.Add(time.Minute)) {
		t.Errorf("Expected derived close time, got %v", candles[0].CloseTime)
	}
}

func TestParseTimeFrame_Unknown(t *testing.T) {
	if _, err := parseTimeFrame("3W"); err == nil {
		t.Error("Expected error for unknown timeframe")
	}
}
