package domain

import "time"

// Channel is a video platform channel known to the service.
// Channels are created once, on first reference, and never modified.
type Channel struct {
	ID           int64  `json:"id"`
	ExternalID   string `json:"externalId"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// Video is an ingested video. Re-ingesting the same URL creates a new Video.
type Video struct {
	ID              int64      `json:"id"`
	ExternalID      string     `json:"externalId"`
	ChannelID       int64      `json:"channelId"`
	ChannelTitle    string     `json:"channelTitle"`
	Title           string     `json:"title"`
	URL             string     `json:"canonicalUrl"`
	UploadTime      *time.Time `json:"uploadTime,omitempty"`
	Views           int64      `json:"views"`
	DurationSeconds int        `json:"durationSeconds"`
	ThumbnailURL    string     `json:"thumbnailUrl"`
}

// VideoSummary is a Video with a short preview of its caption text.
type VideoSummary struct {
	Video
	CaptionPreview string `json:"captionPreview"`
}

// VideoMetadata is what the metadata API reports for a video.
type VideoMetadata struct {
	ExternalID        string
	ChannelExternalID string
	Title             string
	ThumbnailURL      string
	PublishedAt       *time.Time
	ViewCount         int64
	DurationSeconds   int
}

// ChannelMetadata is what the metadata API reports for a channel.
type ChannelMetadata struct {
	ExternalID   string
	Title        string
	ThumbnailURL string
}

// ChannelURL returns the canonical URL of a channel.
func ChannelURL(externalID string) string {
	return "https://youtube.com/channel/" + externalID
}

// WatchURL returns the canonical watch URL of a video.
func WatchURL(externalID string) string {
	return "https://www.youtube.com/watch?v=" + externalID
}

// NewChannel builds an unsaved Channel from fetched metadata.
func NewChannel(meta *ChannelMetadata) *Channel {
	return &Channel{
		ExternalID:   meta.ExternalID,
		Title:        meta.Title,
		URL:          ChannelURL(meta.ExternalID),
		ThumbnailURL: meta.ThumbnailURL,
	}
}

// NewVideo builds an unsaved Video owned by channelID from fetched metadata.
func NewVideo(channelID int64, meta *VideoMetadata) *Video {
	return &Video{
		ExternalID:      meta.ExternalID,
		ChannelID:       channelID,
		Title:           meta.Title,
		URL:             WatchURL(meta.ExternalID),
		UploadTime:      meta.PublishedAt,
		Views:           meta.ViewCount,
		DurationSeconds: meta.DurationSeconds,
		ThumbnailURL:    meta.ThumbnailURL,
	}
}
