package driven

import (
	"context"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// ChannelStore handles channel persistence
type ChannelStore interface {
	// GetByExternalID retrieves a channel by its platform id.
	// Returns domain.ErrNotFound when the channel is unknown.
	GetByExternalID(ctx context.Context, externalID string) (*domain.Channel, error)

	// CreateIfAbsent inserts the channel unless one with the same external id exists,
	// atomically, and returns the stored row either way.
	CreateIfAbsent(ctx context.Context, channel *domain.Channel) (*domain.Channel, error)
}

// VideoStore handles video and caption persistence
type VideoStore interface {
	// SaveIngestion writes the video, its caption document and one timestamp row per
	// snippet as a single transaction. Nothing is written if any part fails.
	SaveIngestion(ctx context.Context, ing *domain.Ingestion) (*domain.IngestionResult, error)

	// ListRecent returns the most recently ingested videos with a caption preview.
	ListRecent(ctx context.Context, limit, previewChars int) ([]*domain.VideoSummary, error)
}

// CaptionSearcher runs full-text queries over caption timestamps
type CaptionSearcher interface {
	// SearchCaptions returns rows whose text contains every query term, ordered by
	// upload time (newest first), video id, then snippet start.
	// Returns an error matching domain.ErrStoreUnavailable when the store cannot be reached.
	SearchCaptions(ctx context.Context, q domain.CaptionQuery) ([]*domain.CaptionMatch, error)
}

// Store is the full persistence surface used by the services
type Store interface {
	ChannelStore
	VideoStore
	CaptionSearcher

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error
}
