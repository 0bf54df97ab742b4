package engine

import (
	"context"
	"sync"
	"time"

	"croplearn/internal/errors"
)

// keyLock serializes read-modify-write cycles per stats key. Welford, EWMA and
// regression updates are neither commutative nor idempotent, so two
// interleaved updates of the same key corrupt count, mean and m2; updates to
// different keys proceed in parallel with no coordination. A stalled lock is
// bounded by the timeout and fails the single event instead of wedging the
// pipeline.
//
// Entries are refcounted by holders plus waiters and evicted once idle, so
// the map tracks in-flight keys rather than every key ever seen.
type keyLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
	timeout time.Duration
}

type lockEntry struct {
	token chan struct{}
	refs  int
}

func newKeyLock(timeout time.Duration) *keyLock {
	return &keyLock{
		entries: make(map[string]*lockEntry),
		timeout: timeout,
	}
}

// Acquire takes the lock for key, waiting up to the configured timeout.
func (l *keyLock) Acquire(ctx context.Context, key string) error {
	l.mu.Lock()
	entry, ok := l.entries[key]
	if !ok {
		entry = &lockEntry{token: make(chan struct{}, 1)}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case entry.token <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.drop(key)
		return errors.Wrapf(ctx.Err(), "context canceled waiting for key lock %q", key)
	case <-timer.C:
		l.drop(key)
		return errors.LockTimeout(key)
	}
}

// Release returns the lock for key. Must follow a successful Acquire.
func (l *keyLock) Release(key string) {
	l.mu.Lock()
	entry := l.entries[key]
	l.mu.Unlock()
	if entry != nil {
		<-entry.token
	}
	l.drop(key)
}

// drop decrements a key's refcount and evicts the entry when nothing holds or
// waits on it anymore.
func (l *keyLock) drop(key string) {
	l.mu.Lock()
	if entry := l.entries[key]; entry != nil {
		entry.refs--
		if entry.refs <= 0 {
			delete(l.entries, key)
		}
	}
	l.mu.Unlock()
}
