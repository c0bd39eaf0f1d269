package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tradefolio/portfolio-service/internal/config"
)

// Client wraps the Redis client with price-cache operations
type Client struct {
	rdb *redis.Client
}

// New creates a new Redis client
func New(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks if Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func priceKey(symbol string) string {
	return fmt.Sprintf("stock:%s:price", symbol)
}

// SetStockPrice caches a stock price with TTL
func (c *Client) SetStockPrice(ctx context.Context, symbol, price string, ttl time.Duration) error {
	return c.rdb.Set(ctx, priceKey(symbol), price, ttl).Err()
}

// GetStockPrice retrieves a cached stock price
func (c *Client) GetStockPrice(ctx context.Context, symbol string) (string, error) {
	return c.rdb.Get(ctx, priceKey(symbol)).Result()
}

// InvalidateStockPrice drops the cached price for a symbol, forcing the
// next read through to the catalog. Called after price pushes.
func (c *Client) InvalidateStockPrice(ctx context.Context, symbol string) error {
	return c.rdb.Del(ctx, priceKey(symbol)).Err()
}
