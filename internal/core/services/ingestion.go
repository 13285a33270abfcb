package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driving"
	"github.com/custodia-labs/yousearch-core/internal/timedtext"
)

// Ensure ingestionService implements IngestionService
var _ driving.IngestionService = (*ingestionService)(nil)

const (
	// DefaultIngestLockTTL bounds how long a crashed ingestion can block a retry.
	DefaultIngestLockTTL = 2 * time.Minute

	// DefaultIngestTimeout bounds a whole ingestion, upstream retries included.
	DefaultIngestTimeout = 90 * time.Second

	// MaxListLimit caps ListVideos.
	MaxListLimit = 50

	// CaptionPreviewChars is the length of the caption preview in video listings.
	CaptionPreviewChars = 400
)

// IngestionServiceConfig holds dependencies for the ingestion service.
type IngestionServiceConfig struct {
	Store    driven.Store
	Metadata driven.MetadataFetcher
	Captions driven.CaptionSource
	Lock     driven.DistributedLock // optional
	LockTTL  time.Duration
	Timeout  time.Duration // whole-ingestion deadline; keep below the HTTP write timeout
	Logger   *slog.Logger
}

type ingestionService struct {
	store    driven.Store
	metadata driven.MetadataFetcher
	captions driven.CaptionSource
	channels *ChannelResolver
	lock     driven.DistributedLock
	lockTTL  time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// NewIngestionService creates a new IngestionService
func NewIngestionService(cfg IngestionServiceConfig) driving.IngestionService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultIngestLockTTL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultIngestTimeout
	}

	return &ingestionService{
		store:    cfg.Store,
		metadata: cfg.Metadata,
		captions: cfg.Captions,
		channels: NewChannelResolver(cfg.Store, cfg.Metadata),
		lock:     cfg.Lock,
		lockTTL:  ttl,
		timeout:  timeout,
		logger:   logger,
	}
}

// Ingest runs the ingestion pipeline for one URL.
//
// Everything that can fail upstream (metadata, captions, parsing) happens before
// the first write, and the video, caption document and timestamps are written in
// one transaction. The channel row is the only thing created ahead of that
// transaction, and only once captions are known to be usable.
func (s *ingestionService) Ingest(ctx context.Context, rawURL string) (*domain.IngestionResult, error) {
	videoID, err := domain.ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	release, err := s.acquire(ctx, videoID)
	if err != nil {
		return nil, err
	}
	defer release()

	meta, err := s.metadata.FetchVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch video %s: %w", videoID, err)
	}

	markup, err := s.captions.FetchTimedText(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("fetch captions %s: %w", videoID, err)
	}

	snippets, err := timedtext.Parse(markup)
	if err != nil {
		return nil, fmt.Errorf("parse captions %s: %w", videoID, err)
	}

	channelID, err := s.channels.Resolve(ctx, meta.ChannelExternalID)
	if err != nil {
		return nil, err
	}

	video := domain.NewVideo(channelID, meta)
	result, err := s.store.SaveIngestion(ctx, domain.NewIngestion(video, snippets))
	if err != nil {
		return nil, fmt.Errorf("save video %s: %w", videoID, err)
	}

	s.logger.Info("video ingested",
		"video_id", videoID,
		"id", result.VideoID,
		"caption_id", result.CaptionID,
		"snippets", len(snippets))

	return result, nil
}

// acquire takes the per-video ingest lock. A lock backend failure is logged and
// ingestion proceeds unguarded; a lock held elsewhere is ErrIngestInProgress.
func (s *ingestionService) acquire(ctx context.Context, videoID string) (func(), error) {
	if s.lock == nil {
		return func() {}, nil
	}

	name := "ingest:" + videoID
	acquired, err := s.lock.Acquire(ctx, name, s.lockTTL)
	if err != nil {
		s.logger.Warn("ingest lock unavailable", "video_id", videoID, "error", err)
		return func() {}, nil
	}
	if !acquired {
		return nil, domain.ErrIngestInProgress
	}

	return func() {
		if err := s.lock.Release(context.WithoutCancel(ctx), name); err != nil {
			s.logger.Warn("failed to release ingest lock", "video_id", videoID, "error", err)
		}
	}, nil
}

// ListVideos returns the newest videos with a caption preview.
func (s *ingestionService) ListVideos(ctx context.Context, limit int) ([]*domain.VideoSummary, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListRecent(ctx, limit, CaptionPreviewChars)
}
