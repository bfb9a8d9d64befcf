// Package persist defines the persistence collaborator interfaces the
// engine writes through, plus an in-process store and a ClickHouse-backed
// implementation. The engine never depends on a concrete database from its
// core paths; everything goes through these interfaces.
package persist

import (
	"context"
	"errors"
	"time"

	"github.com/signalcraft/engine/backtest"
	"github.com/signalcraft/engine/types"
)

// ErrConflict reports that a signal record with the same hash already
// exists. Callers treat this as success: the uniqueness key is exactly
// what guarantees at-most-once emission.
var ErrConflict = errors.New("persist: duplicate signal hash")

// SignalStatus tracks a signal record through its delivery lifecycle
type SignalStatus string

const (
	StatusPending   SignalStatus = "pending"
	StatusDelivered SignalStatus = "delivered"
)

// SignalRecord is the dedup row for one emitted signal
type SignalRecord struct {
	Hash            string           `json:"hash"`
	UserID          string           `json:"user_id"`
	StrategyID      string           `json:"strategy_id"`
	SignalType      types.SignalType `json:"signal_type"`
	CandleCloseTime time.Time        `json:"candle_close_time"`
	Status          SignalStatus     `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
}

// SignalStore persists signal records with a unique constraint on Hash
type SignalStore interface {
	// UpsertSignal inserts the record, returning ErrConflict when a
	// record with the same hash already exists.
	UpsertSignal(ctx context.Context, rec SignalRecord) error
	// MarkDelivered flips an existing record to delivered.
	MarkDelivered(ctx context.Context, hash string) error
}

// TradeStore persists completed trades
type TradeStore interface {
	InsertTrade(ctx context.Context, userID, strategyID string, trade types.Trade) error
}

// ReportStore persists backtest reports
type ReportStore interface {
	InsertReport(ctx context.Context, strategyID string, report *backtest.Report) error
}

// Store is the full persistence surface
type Store interface {
	SignalStore
	TradeStore
	ReportStore
}
