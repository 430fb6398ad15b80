package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed scripts/mark_shipped.lua
var markShippedScript string

type Client struct {
	rdb        *redis.Client
	markScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:        rdb,
		markScript: redis.NewScript(markShippedScript),
	}, nil
}

// Ping checks the connection for readiness probes
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func shippedKey(itemID int64) string {
	return fmt.Sprintf("fulfillment:order_item:%d", itemID)
}

// MarkShipped sets the shipped marker of an order item and, in the same
// script run, counts how many of siblingIDs carry a marker
func (c *Client) MarkShipped(ctx context.Context, itemID int64, siblingIDs []int64) (int, error) {
	keys := make([]string, 0, len(siblingIDs)+1)
	keys = append(keys, shippedKey(itemID))
	for _, id := range siblingIDs {
		keys = append(keys, shippedKey(id))
	}

	result, err := c.markScript.Run(ctx, c.rdb, keys).Result()
	if err != nil {
		return 0, fmt.Errorf("mark shipped script failed: %w", err)
	}

	shipped, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected script result type")
	}

	return int(shipped), nil
}

// CountShipped counts the items that carry a shipped marker
func (c *Client) CountShipped(ctx context.Context, itemIDs []int64) (int, error) {
	if len(itemIDs) == 0 {
		return 0, nil
	}

	keys := make([]string, len(itemIDs))
	for i, id := range itemIDs {
		keys[i] = shippedKey(id)
	}

	n, err := c.rdb.Exists(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("count shipped failed: %w", err)
	}
	return int(n), nil
}

// IsShipped reports whether the item carries a shipped marker
func (c *Client) IsShipped(ctx context.Context, itemID int64) (bool, error) {
	n, err := c.rdb.Exists(ctx, shippedKey(itemID)).Result()
	if err != nil {
		return false, fmt.Errorf("read shipped marker failed: %w", err)
	}
	return n > 0, nil
}
