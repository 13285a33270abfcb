package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrInvalidURL indicates the URL is not a recognised video URL
	ErrInvalidURL = errors.New("invalid url")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrUpstream indicates the video platform could not be reached or answered unexpectedly
	ErrUpstream = errors.New("upstream error")

	// ErrCaptionsUnavailable indicates no caption track could be located for a video
	ErrCaptionsUnavailable = errors.New("captions unavailable")

	// ErrMalformedCaptions indicates the timed-text document could not be parsed
	ErrMalformedCaptions = errors.New("malformed captions")

	// ErrStore indicates a storage operation failed (constraint violation, bad query, ...)
	ErrStore = errors.New("store error")

	// ErrStoreUnavailable indicates the store could not be reached at all
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrIngestInProgress indicates the same video is already being ingested
	ErrIngestInProgress = errors.New("ingestion already in progress")
)

// CaptionsUnavailableReason is a best-effort hint about why no captions were found.
// The watch page does not reliably tell these states apart, so treat it as a hint.
type CaptionsUnavailableReason string

const (
	CaptionsReasonUnknown          CaptionsUnavailableReason = "unknown"
	CaptionsReasonDisabled         CaptionsUnavailableReason = "disabled"
	CaptionsReasonVideoUnavailable CaptionsUnavailableReason = "video_unavailable"
	CaptionsReasonRateLimited      CaptionsUnavailableReason = "rate_limited"
	CaptionsReasonNoTracks         CaptionsUnavailableReason = "no_tracks"
)

// CaptionsUnavailableError wraps ErrCaptionsUnavailable with the video id and a reason hint.
type CaptionsUnavailableError struct {
	VideoID string
	Reason  CaptionsUnavailableReason
}

func (e *CaptionsUnavailableError) Error() string {
	return fmt.Sprintf("captions unavailable for video %s (%s)", e.VideoID, e.Reason)
}

// Is reports whether target is ErrCaptionsUnavailable.
func (e *CaptionsUnavailableError) Is(target error) bool {
	return target == ErrCaptionsUnavailable
}
