// Package timedtext parses timed-text caption markup into ordered snippets.
package timedtext

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

type state int

const (
	stateIdle state = iota
	stateAccumulating
)

// entry describes how one entry element carries its timing.
type entry struct {
	startAttr string
	durAttr   string
	perSecond float64
}

var entries = map[string]entry{
	// <transcript><text start="1.0" dur="2.0">
	"text": {startAttr: "start", durAttr: "dur", perSecond: 1},
	// srv3: <timedtext format="3"><body><p t="1000" d="2000">
	"p": {startAttr: "t", durAttr: "d", perSecond: 1000},
}

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Parse converts timed-text markup into snippets in document order.
func Parse(raw string) ([]domain.CaptionSnippet, error) {
	return ParseTokens(newStringTokenSource(raw))
}

// ParseTokens runs the snippet assembly state machine over src.
//
// In the idle state only an entry open event is meaningful: it reads the timing
// attributes and moves to accumulating. While accumulating, character data is
// appended to the snippet text and the matching close event emits the snippet.
func ParseTokens(src TokenSource) ([]domain.CaptionSnippet, error) {
	var (
		st       = stateIdle
		current  domain.CaptionSnippet
		open     string
		text     strings.Builder
		snippets = make([]domain.CaptionSnippet, 0)
		seen     bool
	)

	for {
		tok, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrMalformedCaptions, err)
		}

		switch st {
		case stateIdle:
			if tok.Kind != TokenOpen {
				continue
			}
			seen = true
			format, ok := entries[tok.Name]
			if !ok {
				continue
			}
			current, err = readTiming(tok, format)
			if err != nil {
				return nil, err
			}
			open = tok.Name
			text.Reset()
			st = stateAccumulating

		case stateAccumulating:
			switch tok.Kind {
			case TokenText:
				text.WriteString(newlines.Replace(tok.Text))
			case TokenOpen:
				if tok.Name == open {
					return nil, fmt.Errorf("%w: nested <%s> entry", domain.ErrMalformedCaptions, tok.Name)
				}
				// inline spans such as srv3 <s> contribute their text only
			case TokenClose:
				if tok.Name != open {
					continue
				}
				current.Text = html.UnescapeString(text.String())
				snippets = append(snippets, current)
				st = stateIdle
			}
		}
	}

	if st == stateAccumulating {
		return nil, fmt.Errorf("%w: unterminated <%s> entry", domain.ErrMalformedCaptions, open)
	}
	if !seen {
		return nil, fmt.Errorf("%w: no markup elements", domain.ErrMalformedCaptions)
	}
	return snippets, nil
}

func readTiming(tok Token, format entry) (domain.CaptionSnippet, error) {
	var s domain.CaptionSnippet

	start, ok := tok.Attr(format.startAttr)
	if !ok {
		s.MissingTiming = true
	} else {
		v, err := parseSeconds(start, format.perSecond)
		if err != nil {
			return s, fmt.Errorf("%w: %s=%q", domain.ErrMalformedCaptions, format.startAttr, start)
		}
		s.Start = v
	}

	if dur, ok := tok.Attr(format.durAttr); ok {
		v, err := parseSeconds(dur, format.perSecond)
		if err != nil {
			return s, fmt.Errorf("%w: %s=%q", domain.ErrMalformedCaptions, format.durAttr, dur)
		}
		s.Duration = v
	}

	return s, nil
}

func parseSeconds(raw string, perSecond float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("out of range: %v", v)
	}
	return v / perSecond, nil
}
