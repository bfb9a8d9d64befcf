package persist

import (
	"context"
	"sync"

	"github.com/signalcraft/engine/backtest"
	"github.com/signalcraft/engine/types"
)

// MemoryStore is an in-process Store keyed by signal hash. The
// check-and-insert is atomic under one mutex, which is what preserves the
// at-most-once guarantee for a single-process deployment; multi-process
// deployments need a real unique constraint in the backing database.
type MemoryStore struct {
	mu      sync.Mutex
	signals map[string]SignalRecord
	trades  []storedTrade
	reports map[string]*backtest.Report
}

type storedTrade struct {
	UserID     string
	StrategyID string
	Trade      types.Trade
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		signals: make(map[string]SignalRecord),
		reports: make(map[string]*backtest.Report),
	}
}

// UpsertSignal inserts the record or returns ErrConflict on a hash collision
func (s *MemoryStore) UpsertSignal(ctx context.Context, rec SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.signals[rec.Hash]; exists {
		return ErrConflict
	}
	s.signals[rec.Hash] = rec
	return nil
}

// MarkDelivered flips the record with the given hash to delivered
func (s *MemoryStore) MarkDelivered(ctx context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, exists := s.signals[hash]; exists {
		rec.Status = StatusDelivered
		s.signals[hash] = rec
	}
	return nil
}

// Signal returns the stored record for a hash, if any
func (s *MemoryStore) Signal(hash string) (SignalRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.signals[hash]
	return rec, ok
}

// SignalCount returns the number of stored signal records
func (s *MemoryStore) SignalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.signals)
}

// InsertTrade appends a completed trade
func (s *MemoryStore) InsertTrade(ctx context.Context, userID, strategyID string, trade types.Trade) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, storedTrade{UserID: userID, StrategyID: strategyID, Trade: trade})
	return nil
}

// TradeCount returns the number of stored trades
func (s *MemoryStore) TradeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

// InsertReport stores a backtest report by strategy
func (s *MemoryStore) InsertReport(ctx context.Context, strategyID string, report *backtest.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[strategyID] = report
	return nil
}
