package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven/mocks"
)

// seedSearchStore ingests three videos; "newer" is the most recently published.
func seedSearchStore(t *testing.T) *mocks.MockStore {
	t.Helper()

	f := newIngestFixture()
	f.addVideo("older", "UC1", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		`<transcript>`+
			`<text start="1" dur="2">a tennis match today</text>`+
			`<text start="8" dur="2">only tennis here</text>`+
			`<text start="20" dur="2">the match point and tennis</text>`+
			`</transcript>`)
	f.addVideo("newer", "UC1", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		`<transcript>`+
			`<text start="0.5" dur="2">Tennis Match highlights</text>`+
			`<text start="30" dur="2">zyxwvut is a unique token</text>`+
			`</transcript>`)
	f.addVideo("unrelated", "UC1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		`<transcript><text start="3" dur="1">cooking pasta</text></transcript>`)

	svc := f.service()
	for _, id := range []string{"older", "newer", "unrelated"} {
		_, err := svc.Ingest(context.Background(), "https://youtu.be/"+id)
		require.NoError(t, err)
	}
	return f.store
}

func TestSearchService_AllTermsMustMatch(t *testing.T) {
	svc := NewSearchService(seedSearchStore(t), nil)

	resp, err := svc.Search(context.Background(), "tennis match")
	require.NoError(t, err)
	assert.Equal(t, "tennis AND match", resp.Query)
	require.Len(t, resp.Videos, 2)

	// newest upload first
	assert.Equal(t, "newer", resp.Videos[0].Video.ExternalID)
	require.Len(t, resp.Videos[0].Captions, 1)
	assert.Equal(t, "https://youtu.be/newer?t=0", resp.Videos[0].Captions[0].AnchorURL)

	older := resp.Videos[1]
	assert.Equal(t, "older", older.Video.ExternalID)
	require.Len(t, older.Captions, 2, "the tennis-only snippet must be excluded")
	assert.Equal(t, 1.0, older.Captions[0].StartSeconds)
	assert.Equal(t, 20.0, older.Captions[1].StartSeconds)
	assert.Equal(t, "https://youtu.be/older?t=18", older.Captions[1].AnchorURL)

	assert.Equal(t, 3, resp.TotalMatches)
}

func TestSearchService_UniqueToken(t *testing.T) {
	svc := NewSearchService(seedSearchStore(t), nil)

	resp, err := svc.Search(context.Background(), "zyxwvut")
	require.NoError(t, err)
	require.Len(t, resp.Videos, 1)
	assert.Equal(t, "newer", resp.Videos[0].Video.ExternalID)
	assert.Equal(t, "zyxwvut is a unique token", resp.Videos[0].Captions[0].Text)
}

func TestSearchService_NoMatches(t *testing.T) {
	svc := NewSearchService(seedSearchStore(t), nil)

	resp, err := svc.Search(context.Background(), "badminton")
	require.NoError(t, err)
	assert.NotNil(t, resp.Videos)
	assert.Empty(t, resp.Videos)
	assert.Zero(t, resp.TotalMatches)
}

func TestSearchService_BlankQuery(t *testing.T) {
	svc := NewSearchService(mocks.NewMockStore(), nil)

	_, err := svc.Search(context.Background(), "   \t ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchService_QueryErrorDegrades(t *testing.T) {
	store := mocks.NewMockStore()
	store.SearchCaptionsFn = func(q domain.CaptionQuery) ([]*domain.CaptionMatch, error) {
		return nil, fmt.Errorf("%w: syntax error in tsquery", domain.ErrStore)
	}
	svc := NewSearchService(store, nil)

	resp, err := svc.Search(context.Background(), "tennis")
	require.NoError(t, err)
	assert.Empty(t, resp.Videos)
}

func TestSearchService_StoreUnavailable(t *testing.T) {
	store := mocks.NewMockStore()
	store.SearchCaptionsFn = func(q domain.CaptionQuery) ([]*domain.CaptionMatch, error) {
		return nil, fmt.Errorf("%w: dial tcp: connection refused", domain.ErrStoreUnavailable)
	}
	svc := NewSearchService(store, nil)

	resp, err := svc.Search(context.Background(), "tennis")
	assert.Nil(t, resp)
	assert.True(t, errors.Is(err, domain.ErrStoreUnavailable))
}

func TestSearchService_PassesTermsAndLimit(t *testing.T) {
	var got domain.CaptionQuery
	store := mocks.NewMockStore()
	store.SearchCaptionsFn = func(q domain.CaptionQuery) ([]*domain.CaptionMatch, error) {
		got = q
		return nil, nil
	}

	_, err := NewSearchService(store, nil).Search(context.Background(), "  game   set match ")
	require.NoError(t, err)
	assert.Equal(t, []string{"game", "set", "match"}, got.Terms)
	assert.Equal(t, domain.DefaultMatchLimit, got.Limit)
}
