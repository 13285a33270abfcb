package timedtext

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/yousearch-core/internal/core/domain"
)

func TestParse_TwoEntries(t *testing.T) {
	raw := `<?xml version="1.0" encoding="utf-8" ?><transcript>` +
		`<text start="1.0" dur="2.0">hello</text>` +
		`<text start="5.5" dur="1.2">world &amp; friends</text>` +
		`</transcript>`

	snippets, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, []domain.CaptionSnippet{
		{Text: "hello", Start: 1.0, Duration: 2.0},
		{Text: "world & friends", Start: 5.5, Duration: 1.2},
	}, snippets)
	assert.Equal(t, "hello world & friends ", domain.RawText(snippets))
}

func TestParse_CharacterReferences(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"numeric", `it&#39;s`, "it's"},
		{"double escaped numeric", `it&amp;#39;s`, "it's"},
		{"double escaped named", `&amp;quot;quoted&amp;quot;`, `"quoted"`},
		{"html named", `a&nbsp;b`, "a\u00a0b"},
		{"plain ampersand", `rock &amp; roll`, "rock & roll"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snippets, err := Parse(`<transcript><text start="0.5" dur="1">` + tt.body + `</text></transcript>`)
			require.NoError(t, err)
			require.Len(t, snippets, 1)
			assert.Equal(t, tt.want, snippets[0].Text)
		})
	}
}

func TestParse_NewlinesSeparateWords(t *testing.T) {
	raw := "<transcript><text start=\"3\" dur=\"4\">first line\nsecond line\r\nthird</text></transcript>"

	snippets, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, snippets, 1)
	assert.Equal(t, "first line second line third", snippets[0].Text)
}

func TestParse_MissingAttributes(t *testing.T) {
	raw := `<transcript>` +
		`<text>no timing</text>` +
		`<text start="0" dur="0">zero</text>` +
		`<text start="7">no duration</text>` +
		`</transcript>`

	snippets, err := Parse(raw)
	require.NoError(t, err)
	require.Len(t, snippets, 3)

	assert.True(t, snippets[0].MissingTiming)
	assert.Zero(t, snippets[0].Start)

	// zero offset with explicit attributes is a real timing
	assert.False(t, snippets[1].MissingTiming)
	assert.Zero(t, snippets[1].Start)

	assert.False(t, snippets[2].MissingTiming)
	assert.Equal(t, 7.0, snippets[2].Start)
	assert.Zero(t, snippets[2].Duration)
}

func TestParse_Srv3(t *testing.T) {
	raw := `<timedtext format="3"><body>` +
		`<p t="1500" d="2250">hi <s ac="0">there</s></p>` +
		`<p t="4000" d="1000">again</p>` +
		`</body></timedtext>`

	snippets, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, []domain.CaptionSnippet{
		{Text: "hi there", Start: 1.5, Duration: 2.25},
		{Text: "again", Start: 4, Duration: 1},
	}, snippets)
}

func TestParse_EmptyTranscript(t *testing.T) {
	snippets, err := Parse(`<transcript></transcript>`)
	require.NoError(t, err)
	assert.NotNil(t, snippets)
	assert.Empty(t, snippets)
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty input", ``},
		{"not markup", `definitely not captions`},
		{"bad start", `<transcript><text start="abc" dur="1">x</text></transcript>`},
		{"bad dur", `<transcript><text start="1" dur="1s">x</text></transcript>`},
		{"negative start", `<transcript><text start="-1" dur="1">x</text></transcript>`},
		{"nan start", `<transcript><text start="NaN" dur="1">x</text></transcript>`},
		{"unterminated entry", `<transcript><text start="1" dur="1">x`},
		{"mismatched close", `<transcript><text start="1" dur="1">x</p></transcript>`},
		{"nested entry", `<transcript><text start="1"><text start="2">x</text></text></transcript>`},
		{"unknown entity", `<transcript><text start="1">&bogus;</text></transcript>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedCaptions)
		})
	}
}

// sliceSource replays a fixed token sequence.
type sliceSource struct {
	tokens []Token
	err    error
}

func (s *sliceSource) Next() (Token, error) {
	if len(s.tokens) == 0 {
		if s.err != nil {
			return Token{}, s.err
		}
		return Token{}, io.EOF
	}
	tok := s.tokens[0]
	s.tokens = s.tokens[1:]
	return tok, nil
}

func TestParseTokens_IndependentOfDecoder(t *testing.T) {
	src := &sliceSource{tokens: []Token{
		{Kind: TokenOpen, Name: "transcript"},
		{Kind: TokenText, Text: "ignored outside entries"},
		{Kind: TokenOpen, Name: "text", Attrs: map[string]string{"start": "2", "dur": "3"}},
		{Kind: TokenText, Text: "split "},
		{Kind: TokenText, Text: "text"},
		{Kind: TokenClose, Name: "text"},
		{Kind: TokenClose, Name: "transcript"},
	}}

	snippets, err := ParseTokens(src)
	require.NoError(t, err)
	assert.Equal(t, []domain.CaptionSnippet{{Text: "split text", Start: 2, Duration: 3}}, snippets)
}

func TestParseTokens_SourceError(t *testing.T) {
	src := &sliceSource{
		tokens: []Token{{Kind: TokenOpen, Name: "transcript"}},
		err:    errors.New("connection reset"),
	}

	_, err := ParseTokens(src)
	assert.ErrorIs(t, err, domain.ErrMalformedCaptions)
}
