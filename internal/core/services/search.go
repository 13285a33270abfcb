package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driving"
)

// Ensure searchService implements SearchService
var _ driving.SearchService = (*searchService)(nil)

// searchService implements the SearchService interface
type searchService struct {
	searcher driven.CaptionSearcher
	logger   *slog.Logger
}

// NewSearchService creates a new SearchService
func NewSearchService(searcher driven.CaptionSearcher, logger *slog.Logger) driving.SearchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &searchService{searcher: searcher, logger: logger}
}

// Search finds caption snippets containing every word of text and groups them per video.
//
// Query failures other than an unreachable store degrade to an empty result.
func (s *searchService) Search(ctx context.Context, text string) (*domain.SearchResponse, error) {
	start := time.Now()

	query, err := domain.NewCaptionQuery(text)
	if err != nil {
		return nil, err
	}

	rows, err := s.searcher.SearchCaptions(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) {
			return nil, err
		}
		s.logger.Error("caption query failed", "query", query.String(), "error", err)
		rows = nil
	}

	return &domain.SearchResponse{
		Query:        query.String(),
		Videos:       domain.BucketMatches(rows),
		TotalMatches: len(rows),
		Took:         time.Since(start),
	}, nil
}
