package mocks

import (
	"context"
	"sync"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

// MockCaptionSource is an in-memory CaptionSource for testing
type MockCaptionSource struct {
	mu        sync.Mutex
	documents map[string]string

	// Custom behavior hooks (optional)
	FetchTimedTextFn func(ctx context.Context, videoID string) (string, error)
}

// NewMockCaptionSource creates a new MockCaptionSource
func NewMockCaptionSource() *MockCaptionSource {
	return &MockCaptionSource{documents: make(map[string]string)}
}

// SetDocument registers the timed-text markup returned for a video.
func (m *MockCaptionSource) SetDocument(videoID, markup string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents[videoID] = markup
}

func (m *MockCaptionSource) FetchTimedText(ctx context.Context, videoID string) (string, error) {
	if m.FetchTimedTextFn != nil {
		return m.FetchTimedTextFn(ctx, videoID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.documents[videoID]
	if !ok {
		return "", &domain.CaptionsUnavailableError{VideoID: videoID, Reason: domain.CaptionsReasonDisabled}
	}
	return doc, nil
}
