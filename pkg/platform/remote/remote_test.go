package remote

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veritag/pkg/platform/circuit"
	"veritag/pkg/platform/sentinel"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestCall_Success(t *testing.T) {
	c := NewCaller("test", time.Second, testLogger())

	got, err := Call(context.Background(), c, func(ctx context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestCall_FailureReturnsUnavailable(t *testing.T) {
	c := NewCaller("test", time.Second, testLogger())

	_, err := Call(context.Background(), c, func(ctx context.Context) (string, error) {
		return "", errors.New("connection refused")
	})
	require.Error(t, err)
	assert.True(t, Degraded(err))
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
}

func TestCall_TimeoutIsBounded(t *testing.T) {
	c := NewCaller("test", 10*time.Millisecond, testLogger())

	start := time.Now()
	_, err := Call(context.Background(), c, func(ctx context.Context) (string, error) {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(time.Second):
			return "late", nil
		}
	})
	require.Error(t, err)
	assert.True(t, Degraded(err))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestCall_OpenBreakerSkipsCall(t *testing.T) {
	b := circuit.New("test", circuit.WithFailureThreshold(1))
	c := NewCaller("test", time.Second, testLogger(), WithBreaker(b))

	_, err := Call(context.Background(), c, func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.Error(t, err)
	require.True(t, b.IsOpen())

	called := false
	_, err = Call(context.Background(), c, func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})
	require.Error(t, err)
	assert.False(t, called, "open breaker must skip the remote call")
	assert.True(t, Degraded(err))
}

func TestCall_SuccessClosesBreaker(t *testing.T) {
	b := circuit.New("test", circuit.WithFailureThreshold(1))
	c := NewCaller("test", time.Second, testLogger(), WithBreaker(b))

	_, _ = Call(context.Background(), c, func(ctx context.Context) (int, error) {
		return 0, errors.New("boom")
	})
	require.True(t, b.IsOpen())

	b.Reset()
	got, err := Call(context.Background(), c, func(ctx context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.False(t, b.IsOpen())
}
