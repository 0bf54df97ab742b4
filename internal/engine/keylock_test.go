package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croplearn/internal/errors"
)

func TestKeyLockSerializesSameKey(t *testing.T) {
	locks := newKeyLock(time.Second)
	ctx := context.Background()

	require.NoError(t, locks.Acquire(ctx, "a"))

	done := make(chan struct{})
	go func() {
		require.NoError(t, locks.Acquire(ctx, "a"))
		locks.Release("a")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second acquire succeeded while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	locks.Release("a")
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second acquire never proceeded after release")
	}
}

func TestKeyLockDifferentKeysDoNotBlock(t *testing.T) {
	locks := newKeyLock(time.Second)
	ctx := context.Background()

	require.NoError(t, locks.Acquire(ctx, "a"))
	require.NoError(t, locks.Acquire(ctx, "b"))
	locks.Release("a")
	locks.Release("b")
}

func TestKeyLockTimeout(t *testing.T) {
	locks := newKeyLock(20 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, locks.Acquire(ctx, "a"))
	defer locks.Release("a")

	err := locks.Acquire(ctx, "a")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeLockTimeout))
}

func TestKeyLockEvictsIdleEntries(t *testing.T) {
	locks := newKeyLock(20 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		key := string(rune('a'+i%26)) + "|crop"
		require.NoError(t, locks.Acquire(ctx, key))
		locks.Release(key)
	}

	locks.mu.Lock()
	remaining := len(locks.entries)
	locks.mu.Unlock()
	assert.Zero(t, remaining, "released keys must not accumulate for the process lifetime")

	// A timed-out waiter drops its reference too; only the holder's remains.
	require.NoError(t, locks.Acquire(ctx, "held"))
	err := locks.Acquire(ctx, "held")
	require.Error(t, err)

	locks.mu.Lock()
	remaining = len(locks.entries)
	locks.mu.Unlock()
	assert.Equal(t, 1, remaining)

	locks.Release("held")
	locks.mu.Lock()
	remaining = len(locks.entries)
	locks.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestKeyLockContextCancel(t *testing.T) {
	locks := newKeyLock(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, locks.Acquire(ctx, "a"))
	defer locks.Release("a")

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := locks.Acquire(ctx, "a")
	assert.Error(t, err)
}
