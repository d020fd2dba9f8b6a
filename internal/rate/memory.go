package rate

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// Memory is an in-process fixed-window [Limiter]. Counters are per
// (client, route) key under a single mutex; the critical section is a map
// access and an increment, never I/O.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	config  Config
	now     func() time.Time
}

// NewMemory returns an in-process limiter. now may be nil for the wall
// clock.
func NewMemory(cfg Config, now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		windows: make(map[string]*window),
		config:  cfg,
		now:     now,
	}
}

// Admit counts the request against the current window and decides.
func (m *Memory) Admit(_ context.Context, client, route string) (Decision, error) {
	if m.config.MaxAttempts <= 0 || m.config.Window <= 0 {
		return Decision{Allowed: true}, nil
	}

	key := bucketKey(client, route)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.windows[key]
	if !ok || !now.Before(w.start.Add(m.config.Window)) {
		w = &window{start: now}
		m.windows[key] = w
	}

	w.count++
	if w.count <= m.config.MaxAttempts {
		return Decision{Allowed: true}, nil
	}

	return Decision{
		Allowed:    false,
		RetryAfter: w.start.Add(m.config.Window).Sub(now),
	}, nil
}

// Sweep drops windows that ended before the current instant. Optional;
// stale windows are also replaced lazily on the next Admit.
func (m *Memory) Sweep() int {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key, w := range m.windows {
		if !now.Before(w.start.Add(m.config.Window)) {
			delete(m.windows, key)
			removed++
		}
	}
	return removed
}
