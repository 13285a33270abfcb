package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
	"github.com/custodia-labs/yousearch-core/internal/core/ports/driven"
)

// Ensure DataAPI implements MetadataFetcher
var _ driven.MetadataFetcher = (*DataAPI)(nil)

const dataAPIParts = "id,snippet,statistics,contentDetails"

// DataAPI fetches video and channel metadata from the YouTube Data API v3.
type DataAPI struct {
	baseURL string
	apiKey  string
	fetcher *fetcher
}

// NewDataAPI creates a new Data API metadata fetcher
func NewDataAPI(cfg Config) *DataAPI {
	cfg = cfg.withDefaults()
	return &DataAPI{
		baseURL: cfg.DataAPIURL,
		apiKey:  cfg.APIKey,
		fetcher: newFetcher("youtube-data-api", cfg),
	}
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type thumbnail struct {
	URL string `json:"url"`
}

type videoResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title       string               `json:"title"`
		ChannelID   string               `json:"channelId"`
		PublishedAt string               `json:"publishedAt"`
		Thumbnails  map[string]thumbnail `json:"thumbnails"`
	} `json:"snippet"`
	Statistics struct {
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
	ContentDetails struct {
		Duration string `json:"duration"`
	} `json:"contentDetails"`
}

type channelResource struct {
	ID      string `json:"id"`
	Snippet struct {
		Title      string               `json:"title"`
		Thumbnails map[string]thumbnail `json:"thumbnails"`
	} `json:"snippet"`
}

// FetchVideo returns the metadata of one video.
func (a *DataAPI) FetchVideo(ctx context.Context, videoID string) (*domain.VideoMetadata, error) {
	item, err := firstItem[videoResource](ctx, a, "videos", videoID)
	if err != nil {
		return nil, err
	}

	meta := &domain.VideoMetadata{
		ExternalID:        videoID,
		ChannelExternalID: item.Snippet.ChannelID,
		Title:             item.Snippet.Title,
		ThumbnailURL:      item.Snippet.Thumbnails["default"].URL,
	}
	if item.ID != "" {
		meta.ExternalID = item.ID
	}
	if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
		meta.PublishedAt = &t
	}
	if item.Statistics.ViewCount != "" {
		views, err := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: viewCount %q", domain.ErrUpstream, item.Statistics.ViewCount)
		}
		meta.ViewCount = views
	}
	if item.ContentDetails.Duration != "" {
		secs, err := parseISODuration(item.ContentDetails.Duration)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
		}
		meta.DurationSeconds = secs
	}

	return meta, nil
}

// FetchChannel returns the metadata of one channel.
func (a *DataAPI) FetchChannel(ctx context.Context, channelID string) (*domain.ChannelMetadata, error) {
	item, err := firstItem[channelResource](ctx, a, "channels", channelID)
	if err != nil {
		return nil, err
	}

	meta := &domain.ChannelMetadata{
		ExternalID:   channelID,
		Title:        item.Snippet.Title,
		ThumbnailURL: item.Snippet.Thumbnails["default"].URL,
	}
	if item.ID != "" {
		meta.ExternalID = item.ID
	}
	return meta, nil
}

// firstItem lists resource by id and returns the first element of items.
func firstItem[T any](ctx context.Context, a *DataAPI, resource, id string) (*T, error) {
	q := url.Values{}
	q.Set("part", dataAPIParts)
	q.Set("id", id)
	q.Set("key", a.apiKey)

	body, err := a.fetcher.get(ctx, a.baseURL+"/"+resource+"?"+q.Encode(), "application/json")
	if err != nil {
		return nil, fmt.Errorf("list %s %s: %w", resource, id, err)
	}

	var resp listResponse[T]
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode %s response: %v", domain.ErrUpstream, resource, err)
	}
	if len(resp.Items) == 0 {
		return nil, fmt.Errorf("%s %s: %w", resource, id, domain.ErrNotFound)
	}
	return &resp.Items[0], nil
}

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)(?:\.\d+)?S)?)?$`)

// parseISODuration converts an ISO-8601 duration such as PT1H2M3S to whole seconds.
func parseISODuration(s string) (int, error) {
	m := isoDurationRE.FindStringSubmatch(s)
	if m == nil || s == "P" || s == "PT" {
		return 0, fmt.Errorf("invalid duration %q", s)
	}

	units := []int{7 * 24 * 3600, 24 * 3600, 3600, 60, 1}
	total := 0
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		total += n * unit
	}
	return total, nil
}
