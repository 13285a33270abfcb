package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrInvalidURL", ErrInvalidURL, "invalid url"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrUpstream", ErrUpstream, "upstream error"},
		{"ErrCaptionsUnavailable", ErrCaptionsUnavailable, "captions unavailable"},
		{"ErrMalformedCaptions", ErrMalformedCaptions, "malformed captions"},
		{"ErrStore", ErrStore, "store error"},
		{"ErrStoreUnavailable", ErrStoreUnavailable, "store unavailable"},
		{"ErrInvalidInput", ErrInvalidInput, "invalid input"},
		{"ErrIngestInProgress", ErrIngestInProgress, "ingestion already in progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrInvalidURL,
		ErrNotFound,
		ErrUpstream,
		ErrCaptionsUnavailable,
		ErrMalformedCaptions,
		ErrStore,
		ErrStoreUnavailable,
		ErrInvalidInput,
		ErrIngestInProgress,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("errors should be distinct: %v and %v", err1, err2)
			}
		}
	}
}

func TestCaptionsUnavailableError(t *testing.T) {
	err := &CaptionsUnavailableError{VideoID: "abc", Reason: CaptionsReasonRateLimited}

	if !errors.Is(err, ErrCaptionsUnavailable) {
		t.Error("expected CaptionsUnavailableError to match ErrCaptionsUnavailable")
	}
	if errors.Is(err, ErrUpstream) {
		t.Error("CaptionsUnavailableError should not match ErrUpstream")
	}

	wrapped := fmt.Errorf("acquire captions: %w", err)
	var target *CaptionsUnavailableError
	if !errors.As(wrapped, &target) {
		t.Fatal("expected errors.As to find CaptionsUnavailableError")
	}
	if target.Reason != CaptionsReasonRateLimited {
		t.Errorf("expected reason %q, got %q", CaptionsReasonRateLimited, target.Reason)
	}
	if got := err.Error(); got != "captions unavailable for video abc (rate_limited)" {
		t.Errorf("unexpected message %q", got)
	}
}
