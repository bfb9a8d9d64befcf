package delivery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/signalcraft/engine/notification"
	"github.com/signalcraft/engine/persist"
	"github.com/signalcraft/engine/types"
)

// Outcome describes what the dispatcher did with one signal
type Outcome string

const (
	OutcomeDelivered   Outcome = "delivered"
	OutcomeDuplicate   Outcome = "duplicate"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeExpired     Outcome = "expired"
	OutcomeSkipped     Outcome = "skipped"
)

// Dispatcher routes actionable signals to notification channels. Each
// signal passes expiry, rate-limit and dedup gates in that order; only a
// newly recorded signal fans out to channels.
type Dispatcher struct {
	recorder *Recorder
	limiter  *RateLimiter
	channels []notification.Channel
	now      func() time.Time
}

// NewDispatcher creates a dispatcher delivering through the given channels
func NewDispatcher(recorder *Recorder, limiter *RateLimiter, channels ...notification.Channel) *Dispatcher {
	return &Dispatcher{
		recorder: recorder,
		limiter:  limiter,
		channels: channels,
		now:      time.Now,
	}
}

// Dispatch processes one evaluated signal for one user and strategy.
// candleClose is the close time of the candle the signal was evaluated
// on; it anchors the dedup hash. Channel failures are logged but do not
// fail the dispatch: delivery is best-effort per channel, at-most-once
// per signal.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, strategyID string, sig types.Signal, candleClose time.Time) (Outcome, error) {
	if sig.IsHold() {
		return OutcomeSkipped, nil
	}
	if sig.Expired(d.now()) {
		slog.Info("dropping expired signal",
			"strategy", strategyID, "type", sig.Type,
			"issued", sig.Timestamp.Format(time.RFC3339), "ttl", sig.TimeToExpire)
		return OutcomeExpired, nil
	}
	if !d.limiter.Allow(userID, strategyID) {
		slog.Warn("rate limit reached, dropping signal",
			"user", userID, "strategy", strategyID, "type", sig.Type)
		return OutcomeRateLimited, nil
	}

	hash := SignalHash(strategyID, sig.Type, candleClose)
	created, err := d.recorder.Record(ctx, persist.SignalRecord{
		Hash:            hash,
		UserID:          userID,
		StrategyID:      strategyID,
		SignalType:      sig.Type,
		CandleCloseTime: candleClose,
		Status:          persist.StatusPending,
		CreatedAt:       d.now().UTC(),
	})
	if err != nil {
		return "", err
	}
	if !created {
		return OutcomeDuplicate, nil
	}

	d.fanOut(ctx, notification.FormatMessage(userID, strategyID, sig))

	if err := d.recorder.MarkDelivered(ctx, hash); err != nil {
		slog.Error("marking signal delivered failed", "hash", hash, "error", err)
	}
	return OutcomeDelivered, nil
}

// fanOut sends the message to every channel concurrently and waits for
// all of them
func (d *Dispatcher) fanOut(ctx context.Context, msg notification.Message) {
	var wg sync.WaitGroup
	for _, ch := range d.channels {
		wg.Add(1)
		go func(ch notification.Channel) {
			defer wg.Done()
			if err := ch.Send(ctx, msg); err != nil {
				slog.Error("channel send failed", "channel", ch.Name(), "error", err)
			}
		}(ch)
	}
	wg.Wait()
}
