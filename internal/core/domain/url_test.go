package domain

import (
	"errors"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{"short host", "https://youtu.be/ABC123", "ABC123", false},
		{"short host with query", "https://youtu.be/ABC123?t=42", "ABC123", false},
		{"short host trailing segment", "https://youtu.be/ABC123/extra", "ABC123", false},
		{"long host", "https://www.youtube.com/watch?v=ABC123&t=5", "ABC123", false},
		{"long host without www", "https://youtube.com/watch?v=ABC123", "ABC123", false},
		{"mobile host", "https://m.youtube.com/watch?v=ABC123", "ABC123", false},
		{"v not first param", "https://www.youtube.com/watch?list=PL1&v=ABC123", "ABC123", false},
		{"surrounding whitespace", "  https://youtu.be/ABC123 ", "ABC123", false},
		{"unrelated host", "https://example.com/x", "", true},
		{"long host missing v", "https://www.youtube.com/watch?list=PL1", "", true},
		{"long host empty v", "https://www.youtube.com/watch?v=", "", true},
		{"short host no path", "https://youtu.be/", "", true},
		{"not a url", "definitely not a url", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidURL) {
					t.Fatalf("expected ErrInvalidURL, got %v (id %q)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
