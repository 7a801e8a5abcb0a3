package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{Tries: 3, Delay: time.Millisecond, Backoff: 2}
}

func TestPolicySucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyRetriesRetryableAndReturnsLastError(t *testing.T) {
	calls := 0
	last := &APIError{Kind: KindServer, Status: 503, Msg: "unavailable"}
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return last
	})
	assert.Equal(t, 3, calls)
	assert.Same(t, last, err.(*APIError))
}

func TestPolicyStopsOnTerminalError(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		return &APIError{Kind: KindInvalidToken, Status: 401}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyRecoversMidway(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return &APIError{Kind: KindRateLimited, Status: 429}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPolicyHonorsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Policy{Tries: 3, Delay: time.Hour, Backoff: 2}.Do(ctx, func() error {
		return &APIError{Kind: KindServer, Status: 500}
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryableTreatsUnknownErrorsAsTransport(t *testing.T) {
	err := errors.New("connection reset")
	assert.True(t, Retryable(err))
	assert.Equal(t, KindTransport, KindOf(err))
}
