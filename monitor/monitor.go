// Package monitor runs strategies against live candle feeds. Each
// (user, strategy) subscription owns its position state behind its own
// lock, so evaluations for different subscriptions proceed concurrently
// while a single subscription is never evaluated twice at once.
package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/signalcraft/engine/delivery"
	"github.com/signalcraft/engine/feed"
	"github.com/signalcraft/engine/persist"
	"github.com/signalcraft/engine/strategy"
	"github.com/signalcraft/engine/types"
)

// Subscription binds one user's strategy to a symbol and timeframe
type Subscription struct {
	UserID     string
	StrategyID string
	Symbol     string
	Timeframe  string
	Config     strategy.Config
}

type subKey struct {
	userID     string
	strategyID string
}

// subscription is the tracked runtime state for one Subscription
type subscription struct {
	Subscription

	mutex         sync.Mutex
	position      types.PositionState
	lastEvaluated time.Time
}

// Monitor evaluates subscribed strategies on a schedule and hands
// resulting signals to the dispatcher
type Monitor struct {
	feed       feed.Feed
	dispatcher *delivery.Dispatcher
	trades     persist.TradeStore

	mutex sync.RWMutex
	subs  map[subKey]*subscription
}

// NewMonitor creates a monitor over the given feed and dispatcher. The
// trade store may be nil when closed trades need not be persisted.
func NewMonitor(f feed.Feed, dispatcher *delivery.Dispatcher, trades persist.TradeStore) *Monitor {
	return &Monitor{
		feed:       f,
		dispatcher: dispatcher,
		trades:     trades,
		subs:       make(map[subKey]*subscription),
	}
}

// Subscribe registers a subscription, validating its config first
func (m *Monitor) Subscribe(sub Subscription) error {
	if sub.Config == nil {
		return fmt.Errorf("%w: nil strategy config", strategy.ErrConfig)
	}
	if err := sub.Config.Validate(); err != nil {
		return err
	}
	if _, err := feed.TimeframeDuration(sub.Timeframe); err != nil {
		return err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	key := subKey{userID: sub.UserID, strategyID: sub.StrategyID}
	if _, exists := m.subs[key]; exists {
		return fmt.Errorf("subscription already exists for user %s strategy %s", sub.UserID, sub.StrategyID)
	}
	m.subs[key] = &subscription{Subscription: sub}
	return nil
}

// Unsubscribe removes a subscription; unknown pairs are a no-op
func (m *Monitor) Unsubscribe(userID, strategyID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.subs, subKey{userID: userID, strategyID: strategyID})
}

// SubscriptionCount returns the number of active subscriptions
func (m *Monitor) SubscriptionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.subs)
}

// Position returns a copy of the tracked position for a subscription
func (m *Monitor) Position(userID, strategyID string) (types.PositionState, bool) {
	m.mutex.RLock()
	sub, ok := m.subs[subKey{userID: userID, strategyID: strategyID}]
	m.mutex.RUnlock()
	if !ok {
		return types.PositionState{}, false
	}
	sub.mutex.Lock()
	defer sub.mutex.Unlock()
	return sub.position, true
}

// Start runs the monitor until the context is cancelled
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	log.Printf("Monitor started, evaluating every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Monitor stopped")
			return
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce evaluates every subscription once against fresh candles.
// Subscriptions are evaluated concurrently; errors are logged per
// subscription and never abort the sweep.
func (m *Monitor) RunOnce(ctx context.Context) {
	m.mutex.RLock()
	subs := make([]*subscription, 0, len(m.subs))
	for _, sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mutex.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *subscription) {
			defer wg.Done()
			if err := m.evaluate(ctx, sub); err != nil {
				log.Printf("Error evaluating strategy %s for user %s: %v", sub.StrategyID, sub.UserID, err)
			}
		}(sub)
	}
	wg.Wait()
}

// evaluate runs one subscription against the latest closed candle
func (m *Monitor) evaluate(ctx context.Context, sub *subscription) error {
	limit := sub.Config.Warmup() * 2
	candles, err := m.feed.Fetch(ctx, sub.Symbol, sub.Timeframe, limit)
	if err != nil {
		return fmt.Errorf("fetching candles for %s: %w", sub.Symbol, err)
	}
	if len(candles) == 0 {
		return fmt.Errorf("no candles for %s", sub.Symbol)
	}

	sub.mutex.Lock()
	defer sub.mutex.Unlock()

	last := candles[len(candles)-1]
	if !last.CloseTime.After(sub.lastEvaluated) {
		return nil
	}

	sig, err := strategy.Evaluate(candles, len(candles)-1, sub.Config, &sub.position)
	if err != nil {
		return err
	}
	sub.lastEvaluated = last.CloseTime

	m.applyLifecycle(ctx, sub, sig, last)

	outcome, err := m.dispatcher.Dispatch(ctx, sub.UserID, sub.StrategyID, sig, last.CloseTime)
	if err != nil {
		return fmt.Errorf("dispatching signal: %w", err)
	}
	if outcome == delivery.OutcomeDelivered {
		log.Printf("Delivered %s signal for user %s strategy %s (%s)", sig.Type, sub.UserID, sub.StrategyID, sig.Reason)
	}
	return nil
}

// applyLifecycle mirrors the signal onto the subscription's tracked
// position. Monitoring positions carry unit size; sizing and execution
// belong to whoever acts on the delivered signal.
func (m *Monitor) applyLifecycle(ctx context.Context, sub *subscription, sig types.Signal, candle types.Candle) {
	switch {
	case sub.position.IsOpen && !sig.IsHold() && sig.ExitReason != "":
		trade := strategy.ClosePosition(&sub.position, candle.Close, 0, candle.CloseTime, sig.ExitReason)
		if m.trades != nil {
			if err := m.trades.InsertTrade(ctx, sub.UserID, sub.StrategyID, trade); err != nil {
				log.Printf("Error persisting trade for user %s strategy %s: %v", sub.UserID, sub.StrategyID, err)
			}
		}
	case !sub.position.IsOpen && sig.Type == types.SignalBuy:
		strategy.OpenPosition(&sub.position, types.SideLong, candle.Close, 1, candle.CloseTime)
	case !sub.position.IsOpen && sig.Type == types.SignalSell:
		strategy.OpenPosition(&sub.position, types.SideShort, candle.Close, 1, candle.CloseTime)
	}

	if sub.position.IsOpen {
		m.applyPartials(sub, candle)
	}
}

// applyPartials takes any partial-close level the position has reached
func (m *Monitor) applyPartials(sub *subscription, candle types.Candle) {
	cfg, ok := sub.Config.(strategy.EMAScalpingConfig)
	if !ok || len(cfg.PartialCloseLevels) == 0 {
		return
	}
	profitPct := sub.position.ProfitPercent(candle.Close)
	for {
		level := strategy.PendingPartial(&sub.position, cfg.PartialCloseLevels, profitPct)
		if level == nil {
			return
		}
		pc := strategy.ApplyPartialClose(&sub.position, *level, candle.Close, 0, candle.CloseTime)
		log.Printf("Partial close for user %s strategy %s: %.2f%% level, size %.4f",
			sub.UserID, sub.StrategyID, pc.Level, pc.ClosedSize)
	}
}
