package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// MockMetadataFetcher is an in-memory MetadataFetcher for testing
type MockMetadataFetcher struct {
	mu       sync.Mutex
	videos   map[string]*domain.VideoMetadata
	channels map[string]*domain.ChannelMetadata

	VideoCalls   int
	ChannelCalls int

	// Custom behavior hooks (optional)
	FetchVideoFn   func(ctx context.Context, videoID string) (*domain.VideoMetadata, error)
	FetchChannelFn func(ctx context.Context, channelID string) (*domain.ChannelMetadata, error)
}

// NewMockMetadataFetcher creates a new MockMetadataFetcher
func NewMockMetadataFetcher() *MockMetadataFetcher {
	return &MockMetadataFetcher{
		videos:   make(map[string]*domain.VideoMetadata),
		channels: make(map[string]*domain.ChannelMetadata),
	}
}

// AddVideo registers video metadata.
func (m *MockMetadataFetcher) AddVideo(meta *domain.VideoMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videos[meta.ExternalID] = meta
}

// AddChannel registers channel metadata.
func (m *MockMetadataFetcher) AddChannel(meta *domain.ChannelMetadata) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[meta.ExternalID] = meta
}

func (m *MockMetadataFetcher) FetchVideo(ctx context.Context, videoID string) (*domain.VideoMetadata, error) {
	m.mu.Lock()
	m.VideoCalls++
	fn := m.FetchVideoFn
	meta, ok := m.videos[videoID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, videoID)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *meta
	return &copied, nil
}

func (m *MockMetadataFetcher) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelMetadata, error) {
	m.mu.Lock()
	m.ChannelCalls++
	fn := m.FetchChannelFn
	meta, ok := m.channels[channelID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, channelID)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *meta
	return &copied, nil
}
