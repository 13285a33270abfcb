package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// Ensure CaptionAcquirer implements CaptionSource
var _ driven.CaptionSource = (*CaptionAcquirer)(nil)

var (
	captionsMarker     = []byte(`"captions":`)
	videoDetailsMarker = []byte(`,"videoDetails`)
	playabilityMarker  = []byte(`"playabilityStatus":`)
	recaptchaMarker    = []byte(`class="g-recaptcha"`)
)

// CaptionAcquirer reads the caption track list embedded in the watch page and
// downloads the timed-text document of the track chosen by its policy.
type CaptionAcquirer struct {
	watchURL string
	policy   TrackPolicy
	fetcher  *fetcher
}

// NewCaptionAcquirer creates a new CaptionAcquirer
func NewCaptionAcquirer(cfg Config) *CaptionAcquirer {
	cfg = cfg.withDefaults()
	return &CaptionAcquirer{
		watchURL: cfg.WatchPageURL,
		policy:   TrackPolicy{Languages: cfg.Languages},
		fetcher:  newFetcher("youtube-captions", cfg),
	}
}

// FetchTimedText returns the raw timed-text markup for videoID.
func (a *CaptionAcquirer) FetchTimedText(ctx context.Context, videoID string) (string, error) {
	q := url.Values{}
	q.Set("v", videoID)
	q.Set("hl", "en")

	page, err := a.fetcher.get(ctx, a.watchURL+"?"+q.Encode(), "text/html,application/xhtml+xml")
	if err != nil {
		return "", fmt.Errorf("watch page %s: %w", videoID, err)
	}

	tracks, err := extractCaptionTracks(videoID, page)
	if err != nil {
		return "", err
	}

	track, ok := a.policy.Pick(tracks)
	if !ok {
		return "", &domain.CaptionsUnavailableError{VideoID: videoID, Reason: domain.CaptionsReasonNoTracks}
	}

	doc, err := a.fetcher.get(ctx, track.BaseURL, "application/xml,text/xml")
	if err != nil {
		return "", fmt.Errorf("timed text %s (%s): %w", videoID, track.LanguageCode, err)
	}
	return string(doc), nil
}

// extractCaptionTracks decodes the captionTracks list between the captions and
// videoDetails markers of a watch page.
func extractCaptionTracks(videoID string, page []byte) ([]CaptionTrack, error) {
	_, after, found := bytes.Cut(page, captionsMarker)
	if !found {
		return nil, &domain.CaptionsUnavailableError{VideoID: videoID, Reason: missingCaptionsReason(page)}
	}

	block, _, found := bytes.Cut(after, videoDetailsMarker)
	if !found {
		return nil, fmt.Errorf("%w: no videoDetails after captions for %s", domain.ErrUpstream, videoID)
	}

	var captions struct {
		Renderer struct {
			CaptionTracks []CaptionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	}
	if err := json.Unmarshal(block, &captions); err != nil {
		return nil, fmt.Errorf("%w: decode caption tracks for %s: %v", domain.ErrUpstream, videoID, err)
	}

	if len(captions.Renderer.CaptionTracks) == 0 {
		return nil, &domain.CaptionsUnavailableError{VideoID: videoID, Reason: domain.CaptionsReasonNoTracks}
	}
	return captions.Renderer.CaptionTracks, nil
}

// missingCaptionsReason guesses why a page carries no captions block.
// The page does not state it outright, so this is only a hint.
func missingCaptionsReason(page []byte) domain.CaptionsUnavailableReason {
	switch {
	case bytes.Contains(page, recaptchaMarker):
		return domain.CaptionsReasonRateLimited
	case !bytes.Contains(page, playabilityMarker):
		return domain.CaptionsReasonVideoUnavailable
	default:
		return domain.CaptionsReasonDisabled
	}
}
