// Package fetcher downloads bookmarked web pages and extracts their text.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.PageFetcher = (*WebFetcher)(nil)

const (
	// DefaultTimeout bounds a single page fetch
	DefaultTimeout = 10 * time.Second

	userAgent = "LocalMind/1.0"

	maxBodyBytes    = 5 << 20
	maxContentChars = 50000

	// A content element shorter than this falls back to the whole body
	minContentChars = 100
)

// WebFetcher fetches pages over HTTP(S)
type WebFetcher struct {
	client *http.Client
}

// NewWebFetcher creates a fetcher whose requests time out after timeout
func NewWebFetcher(timeout time.Duration) *WebFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL and returns its title and readable text.
// 404 and 410 fail with domain.ErrNotFound.
func (f *WebFetcher) Fetch(ctx context.Context, rawURL string) (*domain.Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: not an http url: %s", domain.ErrValidation, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, fmt.Errorf("%w: %s returned status %d", domain.ErrNotFound, rawURL, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%s returned status %d", rawURL, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch mediaType {
	case "", "text/html", "application/xhtml+xml":
		return extractHTML(body)
	case "text/plain":
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("read page: %w", err)
		}
		return &domain.Page{Content: truncate(strings.TrimSpace(string(data)))}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrValidation, mediaType)
	}
}

// extractHTML returns the title, meta description and main text of a page.
// The first article or main element is preferred over the whole body.
func extractHTML(r io.Reader) (*domain.Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var title, description string
	var content, body *html.Node
	walk(doc, func(n *html.Node) {
		switch n.DataAtom {
		case atom.Title:
			if title == "" {
				title = collapse(text(n))
			}
		case atom.Meta:
			if description == "" && strings.EqualFold(attr(n, "name"), "description") {
				description = collapse(attr(n, "content"))
			}
		case atom.Article, atom.Main:
			if content == nil {
				content = n
			}
		case atom.Body:
			body = n
		default:
			if content == nil && attr(n, "role") == "main" {
				content = n
			}
		}
	})

	readable := ""
	if content != nil {
		readable = collapse(text(content))
	}
	if utf8.RuneCountInString(readable) < minContentChars && body != nil {
		readable = collapse(text(body))
	}

	var parts []string
	for _, p := range []string{title, description, readable} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return &domain.Page{Title: title, Content: truncate(strings.Join(parts, "\n\n"))}, nil
}

// walk calls fn for every element under n, depth first
func walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// text concatenates the text nodes under n, skipping non-content elements
func text(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Iframe:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxContentChars {
		return s
	}
	return string([]rune(s)[:maxContentChars])
}
