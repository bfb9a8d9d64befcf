package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/signalcraft/engine/persist"
)

const recordAttempts = 3

// retryBackoff returns the delay before the given retry (1-based)
func retryBackoff(attempt int) time.Duration {
	return time.Duration(100<<(attempt-1)) * time.Millisecond
}

// Recorder writes signal records through a SignalStore with retry on
// transient failures. A hash conflict is not a failure: it means another
// writer (or an earlier attempt) already recorded this signal.
type Recorder struct {
	store persist.SignalStore
}

// NewRecorder creates a recorder over the given store
func NewRecorder(store persist.SignalStore) *Recorder {
	return &Recorder{store: store}
}

// Record inserts the signal record, retrying transient store errors. It
// returns (true, nil) when this call created the record, (false, nil)
// when the record already existed, and an error only after all attempts
// failed.
func (r *Recorder) Record(ctx context.Context, rec persist.SignalRecord) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= recordAttempts; attempt++ {
		err := r.store.UpsertSignal(ctx, rec)
		if err == nil {
			return true, nil
		}
		if errors.Is(err, persist.ErrConflict) {
			return false, nil
		}
		lastErr = err
		slog.Warn("signal record attempt failed",
			"hash", rec.Hash, "attempt", attempt, "max_attempts", recordAttempts, "error", err)
		if attempt == recordAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(retryBackoff(attempt)):
		}
	}
	return false, fmt.Errorf("recording signal %s: %w", rec.Hash, lastErr)
}

// MarkDelivered flips the record to delivered, retrying transient errors
func (r *Recorder) MarkDelivered(ctx context.Context, hash string) error {
	var lastErr error
	for attempt := 1; attempt <= recordAttempts; attempt++ {
		if err := r.store.MarkDelivered(ctx, hash); err == nil {
			return nil
		} else {
			lastErr = err
		}
		if attempt == recordAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff(attempt)):
		}
	}
	return fmt.Errorf("marking signal %s delivered: %w", hash, lastErr)
}
