package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agrimart/storefront/config"
	"github.com/agrimart/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client is a Redis-backed page cache. A Client built with Disabled
// behaves as a permanent miss.
type Client struct {
	rdb redis.UniversalClient
}

type CacheItem struct {
	Data     string    `json:"data"`
	StoredAt time.Time `json:"stored_at"`
}

// Disabled returns a client that stores nothing.
func Disabled() *Client {
	return &Client{}
}

func NewClient(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		logger.GetLogger().Info("Redis disabled, page cache falls back to memory")
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	client := &Client{rdb: rdb}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		logger.GetLogger().Error("Failed to connect to Redis",
			zap.String("address", cfg.RedisAddress()),
			zap.Error(err),
		)
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.GetLogger().Info("Successfully connected to Redis",
		zap.String("address", cfg.RedisAddress()),
		zap.Int("database", cfg.Redis.Database),
	)

	return client, nil
}

// Wrap uses an existing go-redis client.
func Wrap(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Set stores a page body under key for ttl.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	jsonData, err := encodeItem(value, time.Now())
	if err != nil {
		return err
	}

	if err := c.rdb.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		logger.GetLogger().Error("Failed to set cache",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)
		return fmt.Errorf("failed to set cache: %w", err)
	}

	logger.GetLogger().Debug("Cache set successfully",
		zap.String("key", key),
		zap.Duration("ttl", ttl),
		zap.Int("data_size", len(value)),
	)
	return nil
}

// Get returns the cached body, reporting a miss as (nil, false, nil).
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		logger.GetLogger().Error("Failed to get cache",
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, false, fmt.Errorf("failed to get cache: %w", err)
	}

	item, err := decodeItem(data)
	if err != nil {
		logger.GetLogger().Warn("Dropping unreadable cache item",
			zap.String("key", key),
			zap.Error(err),
		)
		_ = c.Delete(ctx, key)
		return nil, false, nil
	}

	return []byte(item.Data), true, nil
}

// Delete removes cache entry
func (c *Client) Delete(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

// DeletePrefix removes every key under prefix using SCAN.
func (c *Client) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	if !c.Enabled() {
		return 0, nil
	}

	var keys []string
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to scan keys by prefix: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		logger.GetLogger().Error("Failed to delete cache by prefix",
			zap.String("prefix", prefix),
			zap.Int("keys", len(keys)),
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to delete cache by prefix: %w", err)
	}

	logger.GetLogger().Info("Cache deleted by prefix",
		zap.String("prefix", prefix),
		zap.Int64("deleted_count", deleted),
	)
	return int(deleted), nil
}

// PoolStats reports connection pool counters for the health endpoint.
func (c *Client) PoolStats() map[string]interface{} {
	if !c.Enabled() {
		return map[string]interface{}{"enabled": false}
	}
	poolStats := c.rdb.PoolStats()
	return map[string]interface{}{
		"enabled":     true,
		"hits":        poolStats.Hits,
		"misses":      poolStats.Misses,
		"total_conns": poolStats.TotalConns,
		"idle_conns":  poolStats.IdleConns,
		"stale_conns": poolStats.StaleConns,
	}
}

func encodeItem(value []byte, at time.Time) ([]byte, error) {
	jsonData, err := json.Marshal(CacheItem{Data: string(value), StoredAt: at})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cache item: %w", err)
	}
	return jsonData, nil
}

func decodeItem(data []byte) (CacheItem, error) {
	var item CacheItem
	if err := json.Unmarshal(data, &item); err != nil {
		return CacheItem{}, fmt.Errorf("failed to unmarshal cache item: %w", err)
	}
	return item, nil
}
