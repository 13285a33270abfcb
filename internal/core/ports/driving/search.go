package driving

import (
	"context"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// SearchService handles caption search operations
type SearchService interface {
	// Search finds snippets containing every word of text, grouped per video
	Search(ctx context.Context, text string) (*domain.SearchResponse, error)
}
