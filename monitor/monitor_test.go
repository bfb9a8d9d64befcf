package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalcraft/engine/delivery"
	"github.com/signalcraft/engine/notification"
	"github.com/signalcraft/engine/persist"
	"github.com/signalcraft/engine/strategy"
	"github.com/signalcraft/engine/types"
)

// mutableFeed serves a close series that tests extend between sweeps
type mutableFeed struct {
	mutex  sync.Mutex
	closes []float64
}

func (f *mutableFeed) Fetch(ctx context.Context, symbol, timeframe string, limit int) ([]types.Candle, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, len(f.closes))
	for i, c := range f.closes {
		open := base.Add(time.Duration(i) * time.Minute)
		candles[i] = types.Candle{
			OpenTime: open, CloseTime: open.Add(time.Minute),
			Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100,
		}
	}
	return candles, nil
}

func (f *mutableFeed) push(closes ...float64) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.closes = append(f.closes, closes...)
}

func breakoutLong() strategy.ConditionTreeConfig {
	return strategy.ConditionTreeConfig{
		Side:  types.SideLong,
		Entry: &strategy.ConditionNode{Left: strategy.IndicatorRef{Name: "close"}, Compare: strategy.CompareGT, Value: 105},
		Exit:  &strategy.ConditionNode{Left: strategy.IndicatorRef{Name: "close"}, Compare: strategy.CompareLT, Value: 103},
	}
}

func newTestMonitor(f *mutableFeed, store *persist.MemoryStore, inbox *notification.Inbox) *Monitor {
	dispatcher := delivery.NewDispatcher(
		delivery.NewRecorder(store),
		delivery.NewRateLimiter(100, time.Minute),
		inbox,
	)
	return NewMonitor(f, dispatcher, store)
}

func flatCloses(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMonitor_SubscribeValidation(t *testing.T) {
	m := newTestMonitor(&mutableFeed{}, persist.NewMemoryStore(), notification.NewInbox(10))

	err := m.Subscribe(Subscription{UserID: "alice", StrategyID: "s1", Symbol: "BTCUSD", Timeframe: "1Min"})
	require.Error(t, err, "nil config must be rejected")

	sub := Subscription{UserID: "alice", StrategyID: "s1", Symbol: "BTCUSD", Timeframe: "1Min", Config: breakoutLong()}
	require.NoError(t, m.Subscribe(sub))
	assert.Error(t, m.Subscribe(sub), "duplicate pair must be rejected")

	bad := sub
	bad.StrategyID = "s2"
	bad.Timeframe = "7Min"
	assert.Error(t, m.Subscribe(bad), "unknown timeframe must be rejected")

	assert.Equal(t, 1, m.SubscriptionCount())
	m.Unsubscribe("alice", "s1")
	assert.Equal(t, 0, m.SubscriptionCount())
}

func TestMonitor_FullLifecycle(t *testing.T) {
	f := &mutableFeed{closes: append(flatCloses(100, 12), 106)}
	store := persist.NewMemoryStore()
	inbox := notification.NewInbox(10)
	m := newTestMonitor(f, store, inbox)

	require.NoError(t, m.Subscribe(Subscription{
		UserID: "alice", StrategyID: "breakout", Symbol: "BTCUSD", Timeframe: "1Min",
		Config: breakoutLong(),
	}))

	// breakout candle closes at 106: entry signal, position opens
	m.RunOnce(context.Background())
	pos, ok := m.Position("alice", "breakout")
	require.True(t, ok)
	assert.True(t, pos.IsOpen)
	assert.Equal(t, types.SideLong, pos.Side)
	assert.Equal(t, 106.0, pos.EntryPrice)
	assert.Equal(t, 1, inbox.Len())

	// same candle again: nothing new to evaluate, no duplicate delivery
	m.RunOnce(context.Background())
	assert.Equal(t, 1, inbox.Len())
	assert.Equal(t, 1, store.SignalCount())

	// price falls through the exit level: position closes, trade persisted
	f.push(102)
	m.RunOnce(context.Background())
	pos, _ = m.Position("alice", "breakout")
	assert.False(t, pos.IsOpen)
	assert.Equal(t, 1, store.TradeCount())
	assert.Equal(t, 2, inbox.Len())

	last := inbox.Recent()[0]
	assert.Equal(t, types.SignalSell, last.Signal.Type)
	assert.Equal(t, types.ExitReversal, last.Signal.ExitReason)
}

func TestMonitor_IndependentSubscriptions(t *testing.T) {
	f := &mutableFeed{closes: append(flatCloses(100, 12), 106)}
	store := persist.NewMemoryStore()
	inbox := notification.NewInbox(10)
	m := newTestMonitor(f, store, inbox)

	// strategy IDs identify instances, so each subscription gets its own
	require.NoError(t, m.Subscribe(Subscription{
		UserID: "alice", StrategyID: "breakout-alice", Symbol: "BTCUSD", Timeframe: "1Min", Config: breakoutLong(),
	}))
	require.NoError(t, m.Subscribe(Subscription{
		UserID: "bob", StrategyID: "breakout-bob", Symbol: "BTCUSD", Timeframe: "1Min", Config: breakoutLong(),
	}))

	m.RunOnce(context.Background())

	// both users get their own delivery and their own position
	assert.Equal(t, 2, inbox.Len())
	assert.Equal(t, 2, store.SignalCount())
	for _, sub := range [][2]string{{"alice", "breakout-alice"}, {"bob", "breakout-bob"}} {
		pos, ok := m.Position(sub[0], sub[1])
		require.True(t, ok, sub[0])
		assert.True(t, pos.IsOpen, sub[0])
	}
}
