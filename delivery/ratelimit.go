package delivery

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window cap on signal deliveries per
// (user, strategy) pair. The window slides continuously: a delivery is
// allowed when fewer than limit deliveries happened in the last window.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mutex   sync.Mutex
	history map[limiterKey][]time.Time
}

type limiterKey struct {
	userID     string
	strategyID string
}

// NewRateLimiter creates a limiter allowing limit deliveries per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		now:     time.Now,
		history: make(map[limiterKey][]time.Time),
	}
}

// Allow reports whether a delivery for the pair may proceed now, and
// records it when allowed
func (rl *RateLimiter) Allow(userID, strategyID string) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	key := limiterKey{userID: userID, strategyID: strategyID}
	now := rl.now()
	cutoff := now.Add(-rl.window)

	recent := rl.history[key][:0]
	for _, t := range rl.history[key] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.history[key] = recent
		return false
	}
	rl.history[key] = append(recent, now)
	return true
}
