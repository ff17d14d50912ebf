package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for the commerce flows: short-lived checkout-link
// caching (so repeated pay clicks reuse the session instead of opening a new
// gateway session) and a seen-transaction guard that lets reconciliation
// skip gateway round-trips for references it already applied. The database's
// conditional write stays the authority; Redis is advisory only.
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
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

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheCheckoutLink stores a hosted checkout link for a reference with TTL
func (c *Client) CacheCheckoutLink(ctx context.Context, txRef, link string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("checkout:%s", txRef), link, ttl).Err()
}

// GetCheckoutLink returns the cached checkout link for a reference, or ""
func (c *Client) GetCheckoutLink(ctx context.Context, txRef string) (string, error) {
	link, err := c.rdb.Get(ctx, fmt.Sprintf("checkout:%s", txRef)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return link, nil
}

// InvalidateCheckoutLink drops a cached checkout link once the reference is
// settled
func (c *Client) InvalidateCheckoutLink(ctx context.Context, txRef string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("checkout:%s", txRef)).Err()
}

// MarkTransactionSeen records that a reference was applied. Returns true if
// this caller was the first to record it.
func (c *Client) MarkTransactionSeen(ctx context.Context, txRef string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("txseen:%s", txRef), "1", ttl).Result()
}

// TransactionSeen checks whether a reference was already applied
func (c *Client) TransactionSeen(ctx context.Context, txRef string) (bool, error) {
	n, err := c.rdb.Exists(ctx, fmt.Sprintf("txseen:%s", txRef)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
