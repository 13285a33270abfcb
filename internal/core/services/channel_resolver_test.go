package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven/mocks"
)

func TestChannelResolver_ExistingChannel(t *testing.T) {
	store := mocks.NewMockStore()
	fetcher := mocks.NewMockMetadataFetcher()
	existing, err := store.CreateIfAbsent(context.Background(), &domain.Channel{ExternalID: "UC1", Title: "One"})
	require.NoError(t, err)

	id, err := NewChannelResolver(store, fetcher).Resolve(context.Background(), "UC1")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id)
	assert.Zero(t, fetcher.ChannelCalls, "known channels must not hit the metadata API")
}

func TestChannelResolver_CreatesUnknownChannel(t *testing.T) {
	store := mocks.NewMockStore()
	fetcher := mocks.NewMockMetadataFetcher()
	fetcher.AddChannel(&domain.ChannelMetadata{ExternalID: "UC2", Title: "Two", ThumbnailURL: "https://i.ytimg.com/two.jpg"})

	id, err := NewChannelResolver(store, fetcher).Resolve(context.Background(), "UC2")
	require.NoError(t, err)

	ch, err := store.GetByExternalID(context.Background(), "UC2")
	require.NoError(t, err)
	assert.Equal(t, id, ch.ID)
	assert.Equal(t, "Two", ch.Title)
	assert.Equal(t, "https://youtube.com/channel/UC2", ch.URL)
	assert.Equal(t, "https://i.ytimg.com/two.jpg", ch.ThumbnailURL)
}

func TestChannelResolver_FetchError(t *testing.T) {
	store := mocks.NewMockStore()
	fetcher := mocks.NewMockMetadataFetcher()

	_, err := NewChannelResolver(store, fetcher).Resolve(context.Background(), "UC404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, store.ChannelCount())
}

func TestChannelResolver_EmptyID(t *testing.T) {
	_, err := NewChannelResolver(mocks.NewMockStore(), mocks.NewMockMetadataFetcher()).Resolve(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUpstream)
}

// racyChannelStore inserts unconditionally, like a plain lookup-then-insert would.
type racyChannelStore struct {
	mu       sync.Mutex
	channels []*domain.Channel
}

func (s *racyChannelStore) GetByExternalID(ctx context.Context, externalID string) (*domain.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.channels {
		if ch.ExternalID == externalID {
			return ch, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *racyChannelStore) CreateIfAbsent(ctx context.Context, channel *domain.Channel) (*domain.Channel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *channel
	stored.ID = int64(len(s.channels) + 1)
	s.channels = append(s.channels, &stored)
	return &stored, nil
}

// barrierFetcher holds every FetchChannel call until n callers are inside it,
// so all of them have already missed the lookup.
func barrierFetcher(n int) *mocks.MockMetadataFetcher {
	var wg sync.WaitGroup
	wg.Add(n)
	fetcher := mocks.NewMockMetadataFetcher()
	fetcher.FetchChannelFn = func(ctx context.Context, channelID string) (*domain.ChannelMetadata, error) {
		wg.Done()
		wg.Wait()
		return &domain.ChannelMetadata{ExternalID: channelID, Title: "Shared"}, nil
	}
	return fetcher
}

func resolveConcurrently(t *testing.T, r *ChannelResolver, n int, externalID string) []int64 {
	t.Helper()

	ids := make([]int64, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = r.Resolve(context.Background(), externalID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errors.Join(errs...))
	return ids
}

func TestChannelResolver_LookupThenInsertRace(t *testing.T) {
	store := &racyChannelStore{}
	ids := resolveConcurrently(t, NewChannelResolver(store, barrierFetcher(2)), 2, "UCrace")

	// Without an atomic conditional insert both resolutions create a row.
	assert.Len(t, store.channels, 2)
	assert.NotEqual(t, ids[0], ids[1])
}

func TestChannelResolver_ConcurrentResolutionCreatesOneChannel(t *testing.T) {
	store := mocks.NewMockStore()
	ids := resolveConcurrently(t, NewChannelResolver(store, barrierFetcher(2)), 2, "UCrace")

	assert.Equal(t, 1, store.ChannelCount())
	assert.Equal(t, ids[0], ids[1])
}
