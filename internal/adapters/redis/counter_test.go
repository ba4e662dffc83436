package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_IncrAndGet(t *testing.T) {
	c := NewCounter(setupTestRedis(t))
	ctx := context.Background()

	n, err := c.Get(ctx, "home")
	require.NoError(t, err)
	assert.Zero(t, n, "unknown counters read as zero")

	for want := int64(1); want <= 3; want++ {
		n, err = c.Incr(ctx, "home")
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	n, err = c.Get(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestCounter_RejectsEmptyName(t *testing.T) {
	c := NewCounter(nil)
	_, err := c.Incr(context.Background(), "")
	require.Error(t, err)
}
