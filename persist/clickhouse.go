package persist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/shopspring/decimal"

	"github.com/signalcraft/engine/backtest"
	"github.com/signalcraft/engine/types"
)

// ClickHouseConfig holds the connection settings for the ClickHouse store
type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

// ClickHouseStore persists signals, trades and reports in ClickHouse.
// Dedup relies on a ReplacingMergeTree keyed by hash: duplicate inserts
// collapse server-side, and the store also checks for an existing hash
// before inserting so callers get ErrConflict synchronously.
type ClickHouseStore struct {
	conn driver.Conn
	db   string
}

// NewClickHouseStore connects and ensures the schema exists
func NewClickHouseStore(ctx context.Context, cfg ClickHouseConfig) (*ClickHouseStore, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": uint64(60),
		},
		DialTimeout: 10 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	s := &ClickHouseStore{conn: conn, db: cfg.Database}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ClickHouseStore) ensureSchema(ctx context.Context) error {
	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.signals (
			hash String,
			user_id String,
			strategy_id String,
			signal_type LowCardinality(String),
			candle_close_time DateTime64(3, 'UTC'),
			status LowCardinality(String),
			created_at DateTime64(3, 'UTC')
		) ENGINE = ReplacingMergeTree(created_at)
		ORDER BY hash`, s.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.trades (
			user_id String,
			strategy_id String,
			side LowCardinality(String),
			entry_time DateTime64(3, 'UTC'),
			entry_price Decimal(18, 8),
			exit_time DateTime64(3, 'UTC'),
			exit_price Decimal(18, 8),
			quantity Decimal(18, 8),
			profit Decimal(18, 8),
			exit_reason LowCardinality(String)
		) ENGINE = MergeTree
		ORDER BY (strategy_id, entry_time)`, s.db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.reports (
			strategy_id String,
			created_at DateTime64(3, 'UTC'),
			initial_balance Decimal(18, 8),
			final_balance Decimal(18, 8),
			total_return_pct Float64,
			win_rate Float64,
			profit_factor Float64,
			max_drawdown_pct Float64,
			trade_count UInt32,
			incomplete UInt8
		) ENGINE = MergeTree
		ORDER BY (strategy_id, created_at)`, s.db),
	}
	for _, q := range ddl {
		if err := s.conn.Exec(ctx, q); err != nil {
			return fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return nil
}

// UpsertSignal inserts the record, mapping an existing hash to ErrConflict
func (s *ClickHouseStore) UpsertSignal(ctx context.Context, rec SignalRecord) error {
	var count uint64
	query := fmt.Sprintf("SELECT count() FROM %s.signals WHERE hash = ?", s.db)
	if err := s.conn.QueryRow(ctx, query, rec.Hash).Scan(&count); err != nil {
		return fmt.Errorf("clickhouse signal lookup: %w", err)
	}
	if count > 0 {
		return ErrConflict
	}
	insert := fmt.Sprintf(`INSERT INTO %s.signals
		(hash, user_id, strategy_id, signal_type, candle_close_time, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.db)
	err := s.conn.Exec(ctx, insert,
		rec.Hash, rec.UserID, rec.StrategyID, string(rec.SignalType),
		rec.CandleCloseTime, string(rec.Status), rec.CreatedAt)
	if err != nil && strings.Contains(err.Error(), "Duplicate") {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("clickhouse signal insert: %w", err)
	}
	return nil
}

// MarkDelivered records the delivered status as a newer row version; the
// ReplacingMergeTree collapses it over the pending one.
func (s *ClickHouseStore) MarkDelivered(ctx context.Context, hash string) error {
	insert := fmt.Sprintf(`INSERT INTO %s.signals
		(hash, user_id, strategy_id, signal_type, candle_close_time, status, created_at)
		SELECT hash, user_id, strategy_id, signal_type, candle_close_time, '%s', now64(3)
		FROM %s.signals WHERE hash = ? ORDER BY created_at DESC LIMIT 1`,
		s.db, StatusDelivered, s.db)
	if err := s.conn.Exec(ctx, insert, hash); err != nil {
		return fmt.Errorf("clickhouse mark delivered: %w", err)
	}
	return nil
}

// InsertTrade appends one completed trade
func (s *ClickHouseStore) InsertTrade(ctx context.Context, userID, strategyID string, trade types.Trade) error {
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s.trades", s.db))
	if err != nil {
		return fmt.Errorf("clickhouse trade batch: %w", err)
	}
	err = batch.Append(
		userID, strategyID, string(trade.Side),
		trade.EntryTime, decimal.NewFromFloat(trade.EntryPrice),
		trade.ExitTime, decimal.NewFromFloat(trade.ExitPrice),
		decimal.NewFromFloat(trade.Quantity), decimal.NewFromFloat(trade.Profit),
		string(trade.ExitReason),
	)
	if err != nil {
		return fmt.Errorf("clickhouse trade append: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("clickhouse trade send: %w", err)
	}
	return nil
}

// InsertReport stores the summary row of one backtest run
func (s *ClickHouseStore) InsertReport(ctx context.Context, strategyID string, report *backtest.Report) error {
	insert := fmt.Sprintf(`INSERT INTO %s.reports
		(strategy_id, created_at, initial_balance, final_balance, total_return_pct,
		 win_rate, profit_factor, max_drawdown_pct, trade_count, incomplete)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.db)
	incomplete := uint8(0)
	if report.Incomplete {
		incomplete = 1
	}
	err := s.conn.Exec(ctx, insert,
		strategyID, time.Now().UTC(),
		decimal.NewFromFloat(report.InitialBalance),
		decimal.NewFromFloat(report.FinalBalance),
		report.TotalReturnPct, report.WinRate, report.ProfitFactor,
		report.MaxDrawdownPct, uint32(len(report.Trades)), incomplete)
	if err != nil {
		return fmt.Errorf("clickhouse report insert: %w", err)
	}
	return nil
}

// Close releases the underlying connection
func (s *ClickHouseStore) Close() error {
	return s.conn.Close()
}

var _ Store = (*ClickHouseStore)(nil)
var _ Store = (*MemoryStore)(nil)
