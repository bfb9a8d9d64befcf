package feed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/signalcraft/engine/types"
)

// barGetter is the slice of the Alpaca market data client the feed uses
type barGetter interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// AlpacaFeed fetches historical bars from the Alpaca market data API
type AlpacaFeed struct {
	client barGetter
}

// NewAlpacaFeed creates a feed backed by the Alpaca market data API
func NewAlpacaFeed(apiKey, apiSecret string) *AlpacaFeed {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})
	return &AlpacaFeed{client: client}
}

// parseTimeFrame converts a timeframe label to Alpaca's TimeFrame type
func parseTimeFrame(timeframe string) (marketdata.TimeFrame, error) {
	switch timeframe {
	case "1Min":
		return marketdata.OneMin, nil
	case "5Min":
		return marketdata.NewTimeFrame(5, marketdata.Min), nil
	case "15Min":
		return marketdata.NewTimeFrame(15, marketdata.Min), nil
	case "1H":
		return marketdata.OneHour, nil
	case "1D":
		return marketdata.OneDay, nil
	default:
		return marketdata.TimeFrame{}, fmt.Errorf("unrecognized timeframe: %s", timeframe)
	}
}

// Fetch pulls the most recent limit bars for the symbol
func (f *AlpacaFeed) Fetch(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	tf, err := parseTimeFrame(timeframe)
	if err != nil {
		return nil, err
	}
	interval, err := TimeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}

	// Pull a generous lookback window; the API returns at most limit bars.
	end := time.Now().UTC()
	start := end.Add(-time.Duration(limit+1) * interval * 2)

	bars, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  tf,
		Start:      start,
		End:        end,
		TotalLimit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bars for %s: %w", symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no bars returned for %s %s", symbol, timeframe)
	}

	candles := make([]types.Candle, 0, len(bars))
	for _, bar := range bars {
		candle := types.Candle{
			OpenTime:  bar.Timestamp.UTC(),
			CloseTime: bar.Timestamp.UTC().Add(interval),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    float64(bar.Volume),
		}
		if err := candle.Validate(); err != nil {
			log.Printf("Skipping invalid bar for %s at %v: %v", symbol, bar.Timestamp, err)
			continue
		}
		candles = append(candles, candle)
	}
	if err := types.ValidateSeries(candles); err != nil {
		return nil, fmt.Errorf("bars for %s: %w", symbol, err)
	}
	return candles, nil
}
