package infrastructure

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// FloodGuard rate-limits inbound messages per sender so one flooding user
// cannot starve the pipeline. Operator senders are exempt. Buckets for idle
// senders are dropped periodically until Close.
type FloodGuard struct {
	mu       sync.Mutex
	limiters map[int64]*floodEntry
	limit    rate.Limit
	burst    int

	// admins is read-only after construction.
	admins map[int64]struct{}
	done   chan struct{}
}

type floodEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewFloodGuard allows perMinute messages per sender with the given burst.
// Senders in admins bypass the limit entirely.
func NewFloodGuard(perMinute float64, burst int, admins map[int64]struct{}) *FloodGuard {
	g := &FloodGuard{
		limiters: make(map[int64]*floodEntry),
		limit:    rate.Limit(perMinute / 60.0),
		burst:    burst,
		admins:   admins,
		done:     make(chan struct{}),
	}
	go g.cleanup()
	return g
}

// Allow reports whether a message from senderID may enter the pipeline.
func (g *FloodGuard) Allow(senderID int64) bool {
	if _, ok := g.admins[senderID]; ok {
		return true
	}

	g.mu.Lock()
	entry, ok := g.limiters[senderID]
	if !ok {
		entry = &floodEntry{limiter: rate.NewLimiter(g.limit, g.burst)}
		g.limiters[senderID] = entry
	}
	entry.lastSeen = time.Now()
	g.mu.Unlock()

	return entry.limiter.Allow()
}

// Close stops the background cleanup. The guard stays usable afterwards.
func (g *FloodGuard) Close() {
	close(g.done)
}

func (g *FloodGuard) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-g.done:
			return
		case <-ticker.C:
			g.mu.Lock()
			now := time.Now()
			for id, entry := range g.limiters {
				if now.Sub(entry.lastSeen) > 10*time.Minute {
					delete(g.limiters, id)
				}
			}
			g.mu.Unlock()
		}
	}
}
