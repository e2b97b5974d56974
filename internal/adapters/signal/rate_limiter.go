package signal

import (
	"sync"
	"time"

	"github.com/dkeye/Huddle/internal/domain"
)

// RoomRateLimiter is a sliding window limiter keyed by connection.
// A non-positive limit lets everything through.
type RoomRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.SessionID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRoomRateLimiter(limit int, interval time.Duration) *RoomRateLimiter {
	return &RoomRateLimiter{
		history:  make(map[domain.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RoomRateLimiter) Allow(sid domain.SessionID) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]
	fresh := attempts[:0]
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}
	rl.history[sid] = append(fresh, now)
	return true
}

// Forget drops the history of a closed connection.
func (rl *RoomRateLimiter) Forget(sid domain.SessionID) {
	rl.mu.Lock()
	delete(rl.history, sid)
	rl.mu.Unlock()
}
