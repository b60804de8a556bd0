package http

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultRequestsPerMinute = 60

	rateWindow     = time.Minute
	sweepInterval  = 5 * time.Minute
	staleClientAge = 10 * time.Minute
)

// rateLimiter counts page requests per client address in fixed one-minute
// windows.
type rateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int
	now      func() time.Time
	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	start    time.Time
	lastSeen time.Time
	count    int
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	return &rateLimiter{
		windows: make(map[string]*window),
		limit:   requestsPerMinute,
		now:     time.Now,
		done:    make(chan struct{}),
	}
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.cleanupStaleEntries()
		}
	}
}

// cleanupStaleEntries forgets clients idle for longer than staleClientAge
// and reports how many were dropped.
func (rl *rateLimiter) cleanupStaleEntries() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-staleClientAge)
	var removed int
	for addr, w := range rl.windows {
		if w.lastSeen.Before(cutoff) {
			delete(rl.windows, addr)
			removed++
		}
	}
	return removed
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *rateLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	now := rl.now()

	rl.mu.Lock()
	w, ok := rl.windows[clientIP]
	if !ok || now.Sub(w.start) >= rateWindow {
		w = &window{start: now}
		rl.windows[clientIP] = w
	}
	w.lastSeen = now
	w.count++
	over := w.count > rl.limit
	rl.mu.Unlock()

	if over && metrics != nil {
		atomic.AddInt64(&metrics.rateLimitHits, 1)
	}
	return !over
}
