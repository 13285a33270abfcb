package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven/mocks"
)

func TestMetadataCache_Video(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := mocks.NewMockMetadataFetcher()
	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	next.AddVideo(&domain.VideoMetadata{
		ExternalID:        "abc123",
		ChannelExternalID: "UC1",
		Title:             "Tennis",
		PublishedAt:       &published,
		ViewCount:         10,
		DurationSeconds:   60,
	})

	cache := NewMetadataCache(next, client, time.Hour, nil)
	ctx := context.Background()

	first, err := cache.FetchVideo(ctx, "abc123")
	require.NoError(t, err)
	second, err := cache.FetchVideo(ctx, "abc123")
	require.NoError(t, err)

	assert.Equal(t, 1, next.VideoCalls)
	assert.Equal(t, first.Title, second.Title)
	require.NotNil(t, second.PublishedAt)
	assert.True(t, second.PublishedAt.Equal(published))
	assert.Equal(t, time.Hour, mr.TTL(videoKeyPrefix+"abc123"))

	mr.FastForward(2 * time.Hour)
	_, err = cache.FetchVideo(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, 2, next.VideoCalls, "expired entries are refetched")
}

func TestMetadataCache_Channel(t *testing.T) {
	_, client := setupTestRedis(t)
	next := mocks.NewMockMetadataFetcher()
	next.AddChannel(&domain.ChannelMetadata{ExternalID: "UC1", Title: "One"})

	cache := NewMetadataCache(next, client, 0, nil)
	for i := 0; i < 3; i++ {
		ch, err := cache.FetchChannel(context.Background(), "UC1")
		require.NoError(t, err)
		assert.Equal(t, "One", ch.Title)
	}
	assert.Equal(t, 1, next.ChannelCalls)
}

func TestMetadataCache_ErrorsAreNotCached(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := mocks.NewMockMetadataFetcher()
	cache := NewMetadataCache(next, client, time.Hour, nil)

	_, err := cache.FetchVideo(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, mr.Exists(videoKeyPrefix+"missing"))

	next.FetchVideoFn = func(ctx context.Context, videoID string) (*domain.VideoMetadata, error) {
		return nil, errors.Join(domain.ErrUpstream, errors.New("status 503"))
	}
	_, err = cache.FetchVideo(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestMetadataCache_CorruptEntry(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := mocks.NewMockMetadataFetcher()
	next.AddVideo(&domain.VideoMetadata{ExternalID: "abc123", Title: "fresh"})
	require.NoError(t, mr.Set(videoKeyPrefix+"abc123", "{not json"))

	meta, err := NewMetadataCache(next, client, time.Hour, nil).FetchVideo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "fresh", meta.Title)
	assert.Equal(t, 1, next.VideoCalls)
}

func TestMetadataCache_RedisDown(t *testing.T) {
	mr, client := setupTestRedis(t)
	next := mocks.NewMockMetadataFetcher()
	next.AddVideo(&domain.VideoMetadata{ExternalID: "abc123", Title: "direct"})
	mr.SetError("ERR backend unavailable")

	meta, err := NewMetadataCache(next, client, time.Hour, nil).FetchVideo(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "direct", meta.Title)
}
