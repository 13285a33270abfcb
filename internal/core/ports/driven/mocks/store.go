package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// MockStore is an in-memory Store for testing.
// CreateIfAbsent is atomic under the store mutex, like the SQL implementations.
type MockStore struct {
	mu         sync.RWMutex
	channels   map[int64]*domain.Channel
	byExternal map[string]*domain.Channel
	videos     []*domain.Video
	captions   map[int64]*domain.CaptionDocument // key: video id
	timestamps []mockTimestamp
	nextID     int64

	// Custom behavior hooks (optional)
	SaveIngestionFn  func(ing *domain.Ingestion) error
	SearchCaptionsFn func(q domain.CaptionQuery) ([]*domain.CaptionMatch, error)
	PingFn           func() error
}

type mockTimestamp struct {
	videoID   int64
	captionID int64
	snippet   domain.CaptionSnippet
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		channels:   make(map[int64]*domain.Channel),
		byExternal: make(map[string]*domain.Channel),
		captions:   make(map[int64]*domain.CaptionDocument),
	}
}

func (m *MockStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MockStore) GetByExternalID(ctx context.Context, externalID string) (*domain.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ch, ok := m.byExternal[externalID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *ch
	return &copied, nil
}

func (m *MockStore) CreateIfAbsent(ctx context.Context, channel *domain.Channel) (*domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byExternal[channel.ExternalID]; ok {
		copied := *existing
		return &copied, nil
	}
	stored := *channel
	stored.ID = m.id()
	m.channels[stored.ID] = &stored
	m.byExternal[stored.ExternalID] = &stored
	copied := stored
	return &copied, nil
}

func (m *MockStore) SaveIngestion(ctx context.Context, ing *domain.Ingestion) (*domain.IngestionResult, error) {
	if m.SaveIngestionFn != nil {
		if err := m.SaveIngestionFn(ing); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.channels[ing.Video.ChannelID]
	if !ok {
		return nil, domain.ErrStore
	}
	for _, s := range ing.Snippets {
		if s.Start < 0 || s.Duration < 0 {
			return nil, domain.ErrStore
		}
	}

	video := *ing.Video
	video.ID = m.id()
	video.ChannelTitle = ch.Title
	m.videos = append(m.videos, &video)

	doc := &domain.CaptionDocument{
		ID:       m.id(),
		VideoID:  video.ID,
		RawText:  ing.RawText(),
		Snippets: append([]domain.CaptionSnippet(nil), ing.Snippets...),
	}
	m.captions[video.ID] = doc

	for _, s := range ing.Snippets {
		m.timestamps = append(m.timestamps, mockTimestamp{videoID: video.ID, captionID: doc.ID, snippet: s})
	}

	return &domain.IngestionResult{VideoID: video.ID, CaptionID: doc.ID}, nil
}

func (m *MockStore) ListRecent(ctx context.Context, limit, previewChars int) ([]*domain.VideoSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*domain.VideoSummary
	for i := len(m.videos) - 1; i >= 0 && len(out) < limit; i-- {
		v := m.videos[i]
		preview := m.captions[v.ID].RawText
		if r := []rune(preview); len(r) > previewChars {
			preview = string(r[:previewChars])
		}
		out = append(out, &domain.VideoSummary{Video: *v, CaptionPreview: preview})
	}
	return out, nil
}

func (m *MockStore) SearchCaptions(ctx context.Context, q domain.CaptionQuery) ([]*domain.CaptionMatch, error) {
	if m.SearchCaptionsFn != nil {
		return m.SearchCaptionsFn(q)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	videos := make(map[int64]*domain.Video, len(m.videos))
	for _, v := range m.videos {
		videos[v.ID] = v
	}

	var rows []*domain.CaptionMatch
	for _, ts := range m.timestamps {
		if !containsAllTerms(ts.snippet.Text, q.Terms) {
			continue
		}
		rows = append(rows, &domain.CaptionMatch{
			Video:    *videos[ts.videoID],
			Text:     ts.snippet.Text,
			Start:    ts.snippet.Start,
			Duration: ts.snippet.Duration,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Video, rows[j].Video
		switch {
		case a.UploadTime != nil && b.UploadTime == nil:
			return true
		case a.UploadTime == nil && b.UploadTime != nil:
			return false
		case a.UploadTime != nil && !a.UploadTime.Equal(*b.UploadTime):
			return a.UploadTime.After(*b.UploadTime)
		case a.ID != b.ID:
			return a.ID > b.ID
		}
		return rows[i].Start < rows[j].Start
	})

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (m *MockStore) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// ChannelCount returns the number of stored channels (for test assertions).
func (m *MockStore) ChannelCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.channels)
}

// VideoCount returns the number of stored videos (for test assertions).
func (m *MockStore) VideoCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.videos)
}

// CaptionDocument returns the caption document stored for a video (for test assertions).
func (m *MockStore) CaptionDocument(videoID int64) (*domain.CaptionDocument, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.captions[videoID]
	return doc, ok
}

// containsAllTerms reports whether every term appears as a word of text, ignoring case.
func containsAllTerms(text string, terms []string) bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = true
	}
	for _, term := range terms {
		if !words[strings.ToLower(term)] {
			return false
		}
	}
	return true
}
