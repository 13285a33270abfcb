package domain

import (
	"net/url"
	"strings"
)

var (
	shortHosts = map[string]bool{
		"youtu.be":     true,
		"www.youtu.be": true,
	}
	longHosts = map[string]bool{
		"youtube.com":       true,
		"www.youtube.com":   true,
		"m.youtube.com":     true,
		"music.youtube.com": true,
	}
)

// ExtractVideoID returns the platform video id from a watch URL.
//
// Two shapes are recognised:
//
//	https://youtu.be/<id>
//	https://www.youtube.com/watch?v=<id>
func ExtractVideoID(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", ErrInvalidURL
	}
	host := strings.ToLower(u.Hostname())

	var id string
	switch {
	case shortHosts[host]:
		id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	case longHosts[host]:
		id = u.Query().Get("v")
	default:
		return "", ErrInvalidURL
	}

	if id == "" {
		return "", ErrInvalidURL
	}
	return id, nil
}
