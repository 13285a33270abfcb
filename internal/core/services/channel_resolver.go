package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// ChannelResolver maps a platform channel id to an internal channel id,
// creating the channel from fetched metadata on first reference.
type ChannelResolver struct {
	channels driven.ChannelStore
	metadata driven.MetadataFetcher
}

// NewChannelResolver creates a new ChannelResolver
func NewChannelResolver(channels driven.ChannelStore, metadata driven.MetadataFetcher) *ChannelResolver {
	return &ChannelResolver{channels: channels, metadata: metadata}
}

// Resolve returns the internal id of the channel with the given external id.
//
// Two resolutions of the same unseen channel may both miss the lookup and fetch
// metadata; CreateIfAbsent collapses them onto a single row.
func (r *ChannelResolver) Resolve(ctx context.Context, externalID string) (int64, error) {
	if externalID == "" {
		return 0, fmt.Errorf("%w: empty channel id", domain.ErrUpstream)
	}

	existing, err := r.channels.GetByExternalID(ctx, externalID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return 0, fmt.Errorf("lookup channel %s: %w", externalID, err)
	}

	meta, err := r.metadata.FetchChannel(ctx, externalID)
	if err != nil {
		return 0, fmt.Errorf("fetch channel %s: %w", externalID, err)
	}

	stored, err := r.channels.CreateIfAbsent(ctx, domain.NewChannel(meta))
	if err != nil {
		return 0, fmt.Errorf("create channel %s: %w", externalID, err)
	}
	return stored.ID, nil
}
