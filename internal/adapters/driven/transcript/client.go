// Package transcript fetches video transcripts from a transcript service.
package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.TranscriptFetcher = (*Client)(nil)

// DefaultTimeout bounds a single transcript fetch
const DefaultTimeout = 30 * time.Second

// Client calls GET {base}/transcript?video_id=ID&lang=LANG.
// A 404 means the video has no transcript.
type Client struct {
	baseURL string
	lang    string
	client  *http.Client
}

// NewClient creates a transcript client
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		lang:    "en",
		client:  &http.Client{Timeout: timeout},
	}
}

type transcriptResponse struct {
	Text     string `json:"text"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
}

// Fetch returns the transcript text of a video URL, or "" when none exists
func (c *Client) Fetch(ctx context.Context, videoURL string) (string, error) {
	id := domain.VideoID(videoURL)
	if id == "" {
		return "", nil
	}

	q := url.Values{"video_id": {id}, "lang": {c.lang}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("transcript service returned status %d", resp.StatusCode)
	}

	var body transcriptResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parse transcript: %w", err)
	}

	text := body.Text
	if text == "" && len(body.Segments) > 0 {
		parts := make([]string, 0, len(body.Segments))
		for _, s := range body.Segments {
			if t := strings.TrimSpace(s.Text); t != "" {
				parts = append(parts, t)
			}
		}
		text = strings.Join(parts, " ")
	}
	return strings.TrimSpace(text), nil
}
