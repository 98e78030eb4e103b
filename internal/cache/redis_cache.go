package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rohan-134v/Streamvibe/internal/config"
	"github.com/Rohan-134v/Streamvibe/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCommentCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCommentCache(cfg config.RedisConfig, prefix string) (*RedisCommentCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisCommentCacheWithClient(client, prefix), nil
}

// NewRedisCommentCacheWithClient wraps an existing client.
func NewRedisCommentCacheWithClient(client *redis.Client, prefix string) *RedisCommentCache {
	return &RedisCommentCache{
		client: client,
		prefix: prefix,
	}
}

// Key returns the cache key of a room's comment log.
func (c *RedisCommentCache) Key(roomID string) string {
	return fmt.Sprintf("%s:room:%s:comments", c.prefix, roomID)
}

func (c *RedisCommentCache) Get(ctx context.Context, roomID string) ([]domain.Comment, error) {
	data, err := c.client.Get(ctx, c.Key(roomID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var comments []domain.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}

	return comments, nil
}

func (c *RedisCommentCache) Set(ctx context.Context, roomID string, comments []domain.Comment, ttl time.Duration) error {
	data, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	if err := c.client.Set(ctx, c.Key(roomID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}

	return nil
}

func (c *RedisCommentCache) Invalidate(ctx context.Context, roomID string) error {
	if err := c.client.Del(ctx, c.Key(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisCommentCache) Close() error {
	return c.client.Close()
}
