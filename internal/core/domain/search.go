package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	// AnchorLeadIn is subtracted from a match start so playback begins before the sentence.
	AnchorLeadIn = 2 * time.Second

	// DefaultMatchLimit caps the number of caption rows a single query reads.
	DefaultMatchLimit = 500

	// MaxMatchLimit is the hard upper bound for CaptionQuery.Limit.
	MaxMatchLimit = 5000
)

// CaptionQuery is a normalised full-text query: every term must appear in a snippet.
type CaptionQuery struct {
	Terms []string
	Limit int
}

// NewCaptionQuery splits text on whitespace into AND-ed terms.
// "tennis match" matches snippets containing both words, not the phrase.
func NewCaptionQuery(text string) (CaptionQuery, error) {
	terms := strings.Fields(text)
	if len(terms) == 0 {
		return CaptionQuery{}, ErrInvalidInput
	}
	return CaptionQuery{Terms: terms, Limit: DefaultMatchLimit}, nil
}

// String renders the query with an explicit AND connective.
func (q CaptionQuery) String() string {
	return strings.Join(q.Terms, " AND ")
}

// CaptionMatch is one flat row returned by a full-text query.
type CaptionMatch struct {
	Video    Video
	Text     string
	Start    float64
	Duration float64
}

// CaptionHit is a matched snippet inside a bucket.
type CaptionHit struct {
	AnchorURL    string  `json:"anchorUrl"`
	Text         string  `json:"text"`
	StartSeconds float64 `json:"startSeconds"`
}

// SearchResultBucket groups the matched snippets of one video, ordered by start.
type SearchResultBucket struct {
	Video    Video        `json:"video"`
	Captions []CaptionHit `json:"captions"`
}

// SearchResponse is the result of a caption search.
type SearchResponse struct {
	Query        string                `json:"query"`
	Videos       []*SearchResultBucket `json:"videos"`
	TotalMatches int                   `json:"totalMatches"`
	Took         time.Duration         `json:"took" swaggertype:"integer" example:"1500000"`
}

// AnchorURL returns a short link that starts playback slightly before start.
func AnchorURL(externalID string, start float64) string {
	offset := math.Floor(start - AnchorLeadIn.Seconds())
	if offset < 0 || math.IsNaN(offset) {
		offset = 0
	}
	return fmt.Sprintf("https://youtu.be/%s?t=%d", externalID, int64(offset))
}

// BucketMatches groups rows into per-video buckets in a single pass.
// Rows must already be ordered with each video's rows contiguous; a new bucket
// starts whenever the video id changes.
func BucketMatches(rows []*CaptionMatch) []*SearchResultBucket {
	buckets := make([]*SearchResultBucket, 0)
	var current *SearchResultBucket

	for _, row := range rows {
		if current == nil || current.Video.ID != row.Video.ID {
			current = &SearchResultBucket{Video: row.Video}
			buckets = append(buckets, current)
		}
		current.Captions = append(current.Captions, CaptionHit{
			AnchorURL:    AnchorURL(row.Video.ExternalID, row.Start),
			Text:         row.Text,
			StartSeconds: row.Start,
		})
	}

	return buckets
}
