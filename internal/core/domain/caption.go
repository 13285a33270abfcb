package domain

import "strings"

// CaptionSnippet is one timed caption entry.
// MissingTiming is set when the source entry carried no start offset, in which case
// Start and Duration are zero but meaningless.
type CaptionSnippet struct {
	Text          string  `json:"text"`
	Start         float64 `json:"start"`
	Duration      float64 `json:"duration"`
	MissingTiming bool    `json:"missingTiming,omitempty"`
}

// CaptionDocument is the full caption track stored for one video.
type CaptionDocument struct {
	ID       int64            `json:"id"`
	VideoID  int64            `json:"videoId"`
	RawText  string           `json:"rawText"`
	Snippets []CaptionSnippet `json:"snippets"`
}

// RawText concatenates snippet texts in order, each followed by a single space.
func RawText(snippets []CaptionSnippet) string {
	var sb strings.Builder
	for _, s := range snippets {
		sb.WriteString(s.Text)
		sb.WriteByte(' ')
	}
	return sb.String()
}

// Ingestion is everything written in one atomic ingestion.
type Ingestion struct {
	Video    *Video
	Snippets []CaptionSnippet
}

// NewIngestion builds an Ingestion for the given video and ordered snippets.
func NewIngestion(video *Video, snippets []CaptionSnippet) *Ingestion {
	return &Ingestion{Video: video, Snippets: snippets}
}

// RawText returns the caption document text for this ingestion.
func (i *Ingestion) RawText() string {
	return RawText(i.Snippets)
}

// IngestionResult holds the identifiers assigned by the store.
type IngestionResult struct {
	VideoID   int64 `json:"videoId"`
	CaptionID int64 `json:"captionId"`
}
