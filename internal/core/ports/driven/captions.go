package driven

import "context"

// CaptionSource acquires the raw timed-text document for a video
type CaptionSource interface {
	// FetchTimedText returns the timed-text markup of the selected caption track.
	// Returns an error matching domain.ErrCaptionsUnavailable when the video exposes no track.
	FetchTimedText(ctx context.Context, videoID string) (string, error)
}
