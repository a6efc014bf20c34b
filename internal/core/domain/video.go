package domain

import (
	"net/url"
	"regexp"
	"strings"
)

// ExtractionTranscript is the extraction method reported when a video
// transcript replaced the captured content
const ExtractionTranscript = "youtube_transcript"

var videoHosts = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
	"www.youtu.be":    true,
}

var bracketPrefix = regexp.MustCompile(`^\([^)]*\)\s*`)

// IsVideoURL reports whether the URL points at a known video host
func IsVideoURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return videoHosts[strings.ToLower(u.Hostname())]
}

// VideoID extracts the video id from a watch or short link.
// Returns "" when the URL carries none.
func VideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	switch strings.ToLower(u.Hostname()) {
	case "youtu.be", "www.youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "www.youtube.com", "m.youtube.com":
		return u.Query().Get("v")
	}
	return ""
}

// CleanVideoTitle strips a leading bracketed prefix such as the
// notification count in "(3) Talk title".
func CleanVideoTitle(title string) string {
	return strings.TrimSpace(bracketPrefix.ReplaceAllString(title, ""))
}
