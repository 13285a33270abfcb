package timedtext

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

// TokenKind identifies a markup event.
type TokenKind int

const (
	TokenOpen TokenKind = iota
	TokenClose
	TokenText
)

// Token is one markup event. Attrs is only set for TokenOpen, Text only for TokenText.
type Token struct {
	Kind  TokenKind
	Name  string
	Attrs map[string]string
	Text  string
}

// Attr returns the named attribute and whether it was present.
func (t Token) Attr(name string) (string, bool) {
	v, ok := t.Attrs[name]
	return v, ok
}

// TokenSource yields markup events in document order and io.EOF when exhausted.
type TokenSource interface {
	Next() (Token, error)
}

type xmlTokenSource struct {
	dec *xml.Decoder
}

// NewXMLTokenSource returns a TokenSource reading XML markup from r.
// Named HTML entities such as &nbsp; are accepted in addition to the XML ones.
func NewXMLTokenSource(r io.Reader) TokenSource {
	dec := xml.NewDecoder(r)
	dec.Entity = xml.HTMLEntity
	return &xmlTokenSource{dec: dec}
}

func (s *xmlTokenSource) Next() (Token, error) {
	for {
		tok, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, io.EOF
			}
			return Token{}, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make(map[string]string, len(t.Attr))
			for _, a := range t.Attr {
				attrs[a.Name.Local] = a.Value
			}
			return Token{Kind: TokenOpen, Name: t.Name.Local, Attrs: attrs}, nil
		case xml.EndElement:
			return Token{Kind: TokenClose, Name: t.Name.Local}, nil
		case xml.CharData:
			return Token{Kind: TokenText, Text: string(t)}, nil
		}
		// comments, processing instructions and directives carry no caption data
	}
}

func newStringTokenSource(raw string) TokenSource {
	return NewXMLTokenSource(strings.NewReader(raw))
}
