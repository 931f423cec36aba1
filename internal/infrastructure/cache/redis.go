package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hszk-dev/reelstream/internal/domain/model"
	"github.com/hszk-dev/reelstream/internal/infrastructure/metrics"
)

// videoListKey is the Redis key holding the serialized video list.
const videoListKey = "videos:list"

// videoJSON is the cached representation of one Video.
// Using an explicit struct avoids coupling the cache format to the wire format.
type videoJSON struct {
	ID        string `json:"id"`
	SourceURL string `json:"source_url"`
	CreatedAt string `json:"created_at"`
	Views     int64  `json:"views"`
	Downloads int64  `json:"downloads"`
}

// RedisVideoListCache implements VideoListCache using Redis as the backing store.
type RedisVideoListCache struct {
	client *redis.Client
}

// NewRedisVideoListCache creates a new Redis-backed list cache.
func NewRedisVideoListCache(client *redis.Client) *RedisVideoListCache {
	return &RedisVideoListCache{client: client}
}

// Get retrieves the video list from Redis.
func (c *RedisVideoListCache) Get(ctx context.Context) ([]*model.Video, error) {
	data, err := c.client.Get(ctx, videoListKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusMiss, metrics.CacheTypeRedis).Inc()
			return nil, nil
		}
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	videos, err := deserialize(data)
	if err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return nil, fmt.Errorf("deserialize video list: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpGet, metrics.CacheStatusHit, metrics.CacheTypeRedis).Inc()
	return videos, nil
}

// Set stores the video list in Redis with the specified TTL.
func (c *RedisVideoListCache) Set(ctx context.Context, videos []*model.Video, ttl time.Duration) error {
	data, err := serialize(videos)
	if err != nil {
		return fmt.Errorf("serialize video list: %w", err)
	}

	if err := c.client.Set(ctx, videoListKey, data, ttl).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpSet, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

// Delete removes the cached list from Redis.
func (c *RedisVideoListCache) Delete(ctx context.Context) error {
	if err := c.client.Del(ctx, videoListKey).Err(); err != nil {
		metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusError, metrics.CacheTypeRedis).Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	metrics.CacheOperationsTotal.WithLabelValues(metrics.CacheOpDelete, metrics.CacheStatusSuccess, metrics.CacheTypeRedis).Inc()
	return nil
}

func serialize(videos []*model.Video) ([]byte, error) {
	out := make([]videoJSON, 0, len(videos))
	for _, v := range videos {
		out = append(out, videoJSON{
			ID:        v.ID,
			SourceURL: v.SourceURL,
			CreatedAt: v.CreatedAt.Format(time.RFC3339Nano),
			Views:     v.Views,
			Downloads: v.Downloads,
		})
	}
	return json.Marshal(out)
}

func deserialize(data []byte) ([]*model.Video, error) {
	var in []videoJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}

	videos := make([]*model.Video, 0, len(in))
	for _, v := range in {
		createdAt, err := time.Parse(time.RFC3339Nano, v.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of %s: %w", v.ID, err)
		}
		videos = append(videos, &model.Video{
			ID:        v.ID,
			SourceURL: v.SourceURL,
			CreatedAt: createdAt,
			Views:     v.Views,
			Downloads: v.Downloads,
		})
	}
	return videos, nil
}

// Compile-time verification that RedisVideoListCache implements VideoListCache.
var _ VideoListCache = (*RedisVideoListCache)(nil)
