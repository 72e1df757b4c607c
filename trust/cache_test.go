package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingResolver struct {
	calls int
	score *int
	err   error
}

func (c *countingResolver) GetScore(_ context.Context, _ string) (*int, error) {
	c.calls++
	return c.score, c.err
}

func (c *countingResolver) Close() error { return nil }

func intPtr(v int) *int { return &v }

func TestCachedReturnsFreshValueWithoutRefetch(t *testing.T) {
	inner := &countingResolver{score: intPtr(55)}
	cached, err := NewCached(inner, 16, time.Minute)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		score, err := cached.GetScore(context.Background(), "agent-1")
		require.NoError(t, err)
		require.Equal(t, 55, *score)
	}

	require.Equal(t, 1, inner.calls)
}

func TestCachedRefetchesAfterTTL(t *testing.T) {
	inner := &countingResolver{score: intPtr(10)}
	cached, err := NewCached(inner, 16, time.Millisecond)
	require.NoError(t, err)

	_, err = cached.GetScore(context.Background(), "agent-1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = cached.GetScore(context.Background(), "agent-1")
	require.NoError(t, err)

	require.Equal(t, 2, inner.calls)
}

func TestCachedReturnsStaleOnBackendError(t *testing.T) {
	inner := &countingResolver{score: intPtr(20)}
	cached, err := NewCached(inner, 16, time.Millisecond)
	require.NoError(t, err)

	score, err := cached.GetScore(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Equal(t, 20, *score)

	time.Sleep(5 * time.Millisecond)
	inner.err = errors.New("backend unavailable")

	score, err = cached.GetScore(context.Background(), "agent-1")
	require.NoError(t, err)
	require.Equal(t, 20, *score)
}
