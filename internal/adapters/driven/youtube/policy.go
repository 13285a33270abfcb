package youtube

import "strings"

// CaptionTrack is one entry of the watch page caption track list.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

// AutoGenerated reports whether the track is speech recognition output.
func (t CaptionTrack) AutoGenerated() bool {
	return t.Kind == "asr"
}

// needsPoToken reports whether a track URL can only be fetched from a browser.
func (t CaptionTrack) needsPoToken() bool {
	return strings.Contains(t.BaseURL, "&exp=xpe")
}

// TrackPolicy chooses which caption track to ingest.
type TrackPolicy struct {
	// Languages in order of preference. Matching is on the primary subtag too,
	// so "en" accepts "en-GB".
	Languages []string
}

// Pick returns the preferred track:
//
//  1. a manual track in a preferred language
//  2. an auto-generated track in a preferred language
//  3. any manual track
//  4. the first track
//
// Tracks that need a browser proof-of-origin token are only used when nothing else is left.
func (p TrackPolicy) Pick(tracks []CaptionTrack) (CaptionTrack, bool) {
	if len(tracks) == 0 {
		return CaptionTrack{}, false
	}

	usable := make([]CaptionTrack, 0, len(tracks))
	for _, t := range tracks {
		if !t.needsPoToken() {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return tracks[0], true
	}

	for _, lang := range p.Languages {
		for _, t := range usable {
			if !t.AutoGenerated() && languageMatches(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	for _, lang := range p.Languages {
		for _, t := range usable {
			if languageMatches(t.LanguageCode, lang) {
				return t, true
			}
		}
	}
	for _, t := range usable {
		if !t.AutoGenerated() {
			return t, true
		}
	}
	return usable[0], true
}

func languageMatches(code, want string) bool {
	code, want = strings.ToLower(code), strings.ToLower(want)
	if code == want {
		return true
	}
	primary, _, _ := strings.Cut(code, "-")
	return primary == want
}
