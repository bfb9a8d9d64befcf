// Package delivery takes signals emitted by strategy evaluation and gets
// them to users exactly once: dedup by content hash, per-user rate
// limiting, and concurrent fan-out to notification channels.
package delivery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/signalcraft/engine/types"
)

// SignalHash derives the dedup key for a signal. Two evaluations of the
// same strategy on the same closed candle producing the same direction
// hash identically, so re-runs and restarts cannot double-emit.
func SignalHash(strategyID string, signalType types.SignalType, candleCloseTime time.Time) string {
	payload := fmt.Sprintf("%s|%s|%d", strategyID, signalType, candleCloseTime.UTC().UnixNano())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
