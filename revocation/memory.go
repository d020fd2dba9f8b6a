package revocation

import (
	"context"
	"sync"
	"time"
)

const memoryPruneEvery = 512

// Memory is a process-local [Registry]. State resets on restart, which is
// acceptable only when tokens are also re-issued on restart; production
// deployments should prefer [Redis].
type Memory struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	writes  int
	now     func() time.Time
}

// NewMemory returns an in-process registry. now may be nil, in which case
// the wall clock is used.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Revoke records the jti until expiresAt and reports whether this call was
// the first writer. The presence check and the insert share one critical
// section, so concurrent revocations of the same jti see exactly one true.
func (m *Memory) Revoke(_ context.Context, jti string, expiresAt time.Time) (bool, error) {
	if jti == "" {
		return false, nil
	}

	now := m.now()
	deadline := expiresAt
	if !deadline.After(now) {
		deadline = now.Add(expiredHold)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.entries[jti]; ok && existing.After(now) {
		// Already revoked; never shorten the existing deadline.
		return false, nil
	}
	m.entries[jti] = deadline

	m.writes++
	if m.writes >= memoryPruneEvery {
		m.pruneLocked(now)
		m.writes = 0
	}

	return true, nil
}

// IsRevoked reports whether the jti is revoked at the current instant.
func (m *Memory) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.RLock()
	expiresAt, ok := m.entries[jti]
	m.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if !expiresAt.After(m.now()) {
		return false, nil
	}
	return true, nil
}

// Prune drops entries whose deadline has passed. Safe to call from a
// background ticker; correctness does not depend on it.
func (m *Memory) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pruneLocked(m.now())
}

// Len reports the number of live entries, counting expired ones that have
// not been pruned yet.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) pruneLocked(now time.Time) int {
	removed := 0
	for jti, expiresAt := range m.entries {
		if !expiresAt.After(now) {
			delete(m.entries, jti)
			removed++
		}
	}
	return removed
}
