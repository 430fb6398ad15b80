package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestClient(t *testing.T) *Client {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - set TEST_REDIS_ADDR to run")
	}

	c, err := NewClient(addr, "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestShippedKeyIsPerItem(t *testing.T) {
	assert.Equal(t, "fulfillment:order_item:42", shippedKey(42))
	assert.NotEqual(t, shippedKey(1), shippedKey(11))
}

func TestMarkShippedCountsSiblings(t *testing.T) {
	c := openTestClient(t)
	ctx := context.Background()

	base := time.Now().UnixNano()
	items := []int64{base, base + 1, base + 2}
	t.Cleanup(func() {
		keys := make([]string, len(items))
		for i, id := range items {
			keys[i] = shippedKey(id)
		}
		c.rdb.Del(ctx, keys...)
	})

	n, err := c.MarkShipped(ctx, items[1], items)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// marking twice leaves the count unchanged
	n, err = c.MarkShipped(ctx, items[1], items)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = c.MarkShipped(ctx, items[0], items)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	shipped, err := c.IsShipped(ctx, items[2])
	require.NoError(t, err)
	assert.False(t, shipped)

	n, err = c.MarkShipped(ctx, items[2], items)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	count, err := c.CountShipped(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
