package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalcraft/engine/types"
)

// CSVFeed reads candles from a CSV file with the column layout
// timestamp,open,high,low,close,volume. The timestamp column is the
// candle open time, either unix milliseconds or RFC 3339; the close time
// is derived from the requested timeframe.
type CSVFeed struct {
	path string
}

// NewCSVFeed creates a feed over the given file
func NewCSVFeed(path string) *CSVFeed {
	return &CSVFeed{path: path}
}

// Fetch loads the series from disk. The symbol argument is ignored; one
// file holds one symbol.
func (f *CSVFeed) Fetch(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	interval, err := TimeframeDuration(timeframe)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("opening candle file: %w", err)
	}
	defer file.Close()

	candles, err := ReadCandles(file, interval)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if limit > 0 && len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

// ReadCandles parses candle rows from r. A header row is detected and
// skipped when the first field is not numeric.
func ReadCandles(r io.Reader, interval time.Duration) ([]types.Candle, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	var candles []types.Candle
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line+1, err)
		}
		line++
		if len(record) < 6 {
			return nil, fmt.Errorf("line %d: expected 6 columns, got %d", line, len(record))
		}
		if line == 1 && looksLikeHeader(record) {
			continue
		}

		openTime, err := parseTimestamp(record[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		vals := make([]float64, 5)
		for i := 0; i < 5; i++ {
			vals[i], err = strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+2, err)
			}
		}

		candle := types.Candle{
			OpenTime:  openTime,
			CloseTime: openTime.Add(interval),
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		}
		if err := candle.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		candles = append(candles, candle)
	}

	if err := types.ValidateSeries(candles); err != nil {
		return nil, err
	}
	return candles, nil
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
	}
	return t.UTC(), nil
}

// looksLikeHeader reports whether the row is a column-name header rather
// than a malformed data row: the timestamp column parses as neither, and
// the price columns are not numeric either. A data row with a bad
// timestamp but numeric prices must surface a parse error instead.
func looksLikeHeader(record []string) bool {
	if isNumericOrTime(record[0]) {
		return false
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64); err == nil {
		return false
	}
	return true
}

func isNumericOrTime(s string) bool {
	s = strings.TrimSpace(s)
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
