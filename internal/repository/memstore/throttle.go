package memstore

import (
	"context"
	"sync"
	"time"
)

// Throttle is a fixed-window failure counter kept in memory.
type Throttle struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	now    func() time.Time
	counts map[string]window
}

type window struct {
	failures int
	resetAt  time.Time
}

func NewThrottle(limit int, windowSize time.Duration) *Throttle {
	return &Throttle{
		limit:  limit,
		window: windowSize,
		now:    time.Now,
		counts: make(map[string]window),
	}
}

func (t *Throttle) Allow(_ context.Context, key string) (bool, error) {
	if t.limit <= 0 {
		return true, nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	w, ok := t.counts[key]
	if !ok {
		return true, nil
	}
	if t.now().After(w.resetAt) {
		delete(t.counts, key)
		return true, nil
	}
	return w.failures < t.limit, nil
}

func (t *Throttle) RecordFailure(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.evictExpired(now)
	w, ok := t.counts[key]
	if !ok || now.After(w.resetAt) {
		w = window{resetAt: now.Add(t.window)}
	}
	w.failures++
	t.counts[key] = w
	return nil
}

func (t *Throttle) Reset(_ context.Context, key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.counts, key)
	return nil
}

func (t *Throttle) evictExpired(now time.Time) {
	for key, w := range t.counts {
		if now.After(w.resetAt) {
			delete(t.counts, key)
		}
	}
}
