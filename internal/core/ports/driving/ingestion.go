package driving

import (
	"context"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// IngestionService turns a video URL into stored, searchable captions
type IngestionService interface {
	// Ingest fetches metadata and captions for the video behind url and stores them.
	// Any failure leaves no video or caption rows behind.
	Ingest(ctx context.Context, url string) (*domain.IngestionResult, error)

	// ListVideos returns the most recently ingested videos
	ListVideos(ctx context.Context, limit int) ([]*domain.VideoSummary, error)
}
