package locker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.TryLock(ctx, "sync:1:sales", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.TryLock(ctx, "sync:1:sales", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// другой ключ не конфликтует
	ok, err = l.TryLock(ctx, "sync:2:sales", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockerUnlock(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Unlock(ctx, "k"))

	ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLockerTTLExpiry(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.TryLock(ctx, "k", 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	// просроченный замок перехватывается
	ok, err = l.TryLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
