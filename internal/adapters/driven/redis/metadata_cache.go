package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.MetadataFetcher = (*MetadataCache)(nil)

const (
	videoKeyPrefix   = "yousearch:meta:video:"
	channelKeyPrefix = "yousearch:meta:channel:"

	// DefaultMetadataTTL keeps API quota usage low for repeated ingestion of a video.
	DefaultMetadataTTL = 6 * time.Hour
)

// MetadataCache wraps a MetadataFetcher with a Redis read-through cache.
// Only successful lookups are cached. Redis failures are logged and the
// request goes to the wrapped fetcher.
type MetadataCache struct {
	next   driven.MetadataFetcher
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewMetadataCache creates a caching MetadataFetcher
func NewMetadataCache(next driven.MetadataFetcher, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *MetadataCache {
	if ttl <= 0 {
		ttl = DefaultMetadataTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MetadataCache{next: next, client: client, ttl: ttl, logger: logger}
}

// FetchVideo returns cached video metadata or fetches and caches it
func (c *MetadataCache) FetchVideo(ctx context.Context, videoID string) (*domain.VideoMetadata, error) {
	return readThrough(ctx, c, videoKeyPrefix+videoID, func() (*domain.VideoMetadata, error) {
		return c.next.FetchVideo(ctx, videoID)
	})
}

// FetchChannel returns cached channel metadata or fetches and caches it
func (c *MetadataCache) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelMetadata, error) {
	return readThrough(ctx, c, channelKeyPrefix+channelID, func() (*domain.ChannelMetadata, error) {
		return c.next.FetchChannel(ctx, channelID)
	})
}

func readThrough[T any](ctx context.Context, c *MetadataCache, key string, fetch func() (*T, error)) (*T, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached T
		if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
			c.logger.Debug("metadata cache hit", "key", key)
			return &cached, nil
		}
		c.logger.Warn("discarding corrupt metadata cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("metadata cache read failed", "key", key, "error", err)
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("metadata cache write failed", "key", key, "error", err)
		}
	}
	return value, nil
}
