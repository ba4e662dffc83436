package query

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CachesWithinStaleTime(t *testing.T) {
	c := NewClient(Options{StaleTime: time.Minute})
	var calls atomic.Int32
	fn := func(context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}

	v1, err := c.Fetch(context.Background(), "visits", fn)
	require.NoError(t, err)
	v2, err := c.Fetch(context.Background(), "visits", fn)
	require.NoError(t, err)

	assert.Equal(t, 1, v1)
	assert.Equal(t, 1, v2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_DeduplicatesConcurrentFetches(t *testing.T) {
	c := NewClient(Options{})
	var calls atomic.Int32
	release := make(chan struct{})
	fn := func(context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "ok", nil
	}

	var wg sync.WaitGroup
	results := make([]any, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Fetch(context.Background(), "k", fn)
			assert.NoError(t, err)
			results[i] = v
		}()
	}
	// Give every goroutine time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, "ok", v)
	}
}

func TestClient_SharedFetchOutlivesCancelledCaller(t *testing.T) {
	c := NewClient(Options{})
	entered := make(chan struct{})
	release := make(chan struct{})
	fn := func(ctx context.Context) (any, error) {
		close(entered)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return "ok", nil
	}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Fetch(firstCtx, "k", fn)
		firstErr <- err
	}()
	<-entered

	type result struct {
		v   any
		err error
	}
	second := make(chan result, 1)
	go func() {
		v, err := c.Fetch(context.Background(), "k", fn)
		second <- result{v, err}
	}()
	// Let the second caller join the in-flight call.
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting on the shared fetch")
	}

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, "ok", got.v)
}

func TestClient_FetchTimeout(t *testing.T) {
	c := NewClient(Options{FetchTimeout: 20 * time.Millisecond})
	fn := func(ctx context.Context) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := c.Fetch(context.Background(), "slow", fn)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_InvalidateRefetches(t *testing.T) {
	c := NewClient(Options{StaleTime: time.Hour})
	var calls atomic.Int32
	fn := func(context.Context) (any, error) { return int(calls.Add(1)), nil }

	_, err := c.Fetch(context.Background(), "k", fn)
	require.NoError(t, err)
	c.Invalidate("k")
	v, err := c.Fetch(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestClient_ErrorsAreNotCached(t *testing.T) {
	c := NewClient(Options{})
	boom := errors.New("boom")
	fail := true
	fn := func(context.Context) (any, error) {
		if fail {
			return nil, boom
		}
		return "recovered", nil
	}

	_, err := c.Fetch(context.Background(), "k", fn)
	require.ErrorIs(t, err, boom)

	fail = false
	v, err := c.Fetch(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, "recovered", v)
}

func TestFetchAs(t *testing.T) {
	c := NewClient(Options{})
	n, err := FetchAs(context.Background(), c, "n", func(context.Context) (int64, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	_, err = FetchAs(context.Background(), c, "n", func(context.Context) (string, error) { return "x", nil })
	require.Error(t, err)
}

func TestContextRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	c := NewClient(Options{})
	got, ok := FromContext(WithClient(context.Background(), c))
	require.True(t, ok)
	assert.Same(t, c, got)
}
