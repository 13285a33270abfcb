package driven

import (
	"context"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// MetadataFetcher reads video and channel metadata from the platform's read API
type MetadataFetcher interface {
	// FetchVideo returns metadata for a video, or domain.ErrNotFound
	FetchVideo(ctx context.Context, videoID string) (*domain.VideoMetadata, error)

	// FetchChannel returns metadata for a channel, or domain.ErrNotFound
	FetchChannel(ctx context.Context, channelID string) (*domain.ChannelMetadata, error)
}
