package ratelimit

import (
	"context"
	"sync"
	"time"
)

// LoginLimiter caps failed login attempts per identifier (client IP) inside a
// sliding window. Implementations share the same semantics: the counter only
// grows on recorded failures, a successful login resets it, and the window
// reset time is recomputed lazily on the first access past expiry.
type LoginLimiter interface {
	// Check reports whether the identifier is still under the ceiling,
	// how many attempts remain, and when the current window resets.
	Check(ctx context.Context, identifier string) (allowed bool, remaining int, resetAt time.Time, err error)
	// RecordFailure counts one failed attempt against the identifier.
	RecordFailure(ctx context.Context, identifier string) error
	// Reset clears the identifier's counter, e.g. after a successful login.
	Reset(ctx context.Context, identifier string) error
	// Limit returns the configured attempt ceiling per window.
	Limit() int
}

type memoryEntry struct {
	attempts int
	resetAt  time.Time
}

// MemoryLimiter is a process-local LoginLimiter. Suitable for single-instance
// deployments only; multi-instance deployments should use RedisLimiter so all
// instances share one counter.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*memoryEntry
	now     func() time.Time
}

func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// Check never materializes an entry: identifiers that only ever pass through
// Check must not grow the map.
func (l *MemoryLimiter) Check(_ context.Context, identifier string) (bool, int, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[identifier]
	if !ok || now.After(entry.resetAt) {
		if ok {
			delete(l.entries, identifier)
		}
		return true, l.limit, now.Add(l.window), nil
	}
	if entry.attempts >= l.limit {
		return false, 0, entry.resetAt, nil
	}
	return true, l.limit - entry.attempts, entry.resetAt, nil
}

func (l *MemoryLimiter) RecordFailure(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entry(identifier).attempts++
	return nil
}

func (l *MemoryLimiter) Reset(_ context.Context, identifier string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, identifier)
	return nil
}

func (l *MemoryLimiter) Limit() int {
	return l.limit
}

// entry returns the live window for an identifier, starting a fresh window if
// none exists or the previous one has elapsed. Callers must hold l.mu.
func (l *MemoryLimiter) entry(identifier string) *memoryEntry {
	now := l.now()
	entry, ok := l.entries[identifier]
	if !ok || now.After(entry.resetAt) {
		entry = &memoryEntry{resetAt: now.Add(l.window)}
		l.entries[identifier] = entry
	}
	return entry
}
