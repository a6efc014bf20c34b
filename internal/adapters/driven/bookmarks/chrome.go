// Package bookmarks reads the Chrome bookmark file as a read-only
// folder and bookmark source.
package bookmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.BookmarkSource = (*ChromeSource)(nil)

// chromeEpoch is the origin of Chrome's date_added microsecond timestamps
var chromeEpoch = time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)

type chromeNode struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	URL       string       `json:"url"`
	DateAdded string       `json:"date_added"`
	Children  []chromeNode `json:"children"`
}

type chromeFile struct {
	Roots struct {
		BookmarkBar *chromeNode `json:"bookmark_bar"`
		Other       *chromeNode `json:"other"`
		Synced      *chromeNode `json:"synced"`
	} `json:"roots"`
}

// ChromeSource reads a Chrome "Bookmarks" JSON file. The file is re-read on
// every call so edits made by the browser are picked up.
type ChromeSource struct {
	path string
}

// NewChromeSource creates a source for the given file.
// An empty path selects the default profile location for this platform.
func NewChromeSource(path string) *ChromeSource {
	if path == "" {
		path = DefaultPath()
	}
	return &ChromeSource{path: path}
}

// DefaultPath returns the default profile's bookmark file location
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "Bookmarks")
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "Google", "Chrome", "User Data", "Default", "Bookmarks")
	default:
		return filepath.Join(home, ".config", "google-chrome", "Default", "Bookmarks")
	}
}

// Path returns the bookmark file location
func (s *ChromeSource) Path() string {
	return s.path
}

func (s *ChromeSource) load() ([]*chromeNode, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	var file chromeFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse bookmarks: %w", err)
	}

	var roots []*chromeNode
	for _, r := range []*chromeNode{file.Roots.BookmarkBar, file.Roots.Other, file.Roots.Synced} {
		if r != nil {
			roots = append(roots, r)
		}
	}
	return roots, nil
}

// Folders returns the folder tree. Counts include subfolders.
func (s *ChromeSource) Folders(ctx context.Context) ([]*domain.BookmarkFolder, error) {
	roots, err := s.load()
	if err != nil {
		return nil, err
	}

	folders := make([]*domain.BookmarkFolder, 0, len(roots))
	for _, r := range roots {
		folders = append(folders, buildFolder(r, nil))
	}
	return folders, nil
}

func buildFolder(n *chromeNode, parentPath []string) *domain.BookmarkFolder {
	path := append(append([]string{}, parentPath...), n.Name)
	f := &domain.BookmarkFolder{ID: n.ID, Name: n.Name, Path: path}

	for i := range n.Children {
		child := &n.Children[i]
		if isFolder(child) {
			sub := buildFolder(child, path)
			f.Count += sub.Count
			f.Children = append(f.Children, sub)
		} else if child.URL != "" {
			f.Count++
		}
	}
	return f
}

// Bookmarks returns every URL bookmark with its folder chain, nearest folder first
func (s *ChromeSource) Bookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	roots, err := s.load()
	if err != nil {
		return nil, err
	}

	var out []*domain.Bookmark
	for _, r := range roots {
		collect(r, nil, &out)
	}
	return out, nil
}

func collect(n *chromeNode, ancestors []string, out *[]*domain.Bookmark) {
	chain := append([]string{n.ID}, ancestors...)
	for i := range n.Children {
		child := &n.Children[i]
		if isFolder(child) {
			collect(child, chain, out)
			continue
		}
		if child.URL == "" {
			continue
		}
		*out = append(*out, &domain.Bookmark{
			ID:        child.ID,
			Title:     child.Name,
			URL:       child.URL,
			AddedAt:   parseChromeTime(child.DateAdded),
			FolderIDs: chain,
		})
	}
}

func isFolder(n *chromeNode) bool {
	return n.Type == "folder" || (n.Type == "" && n.URL == "" && n.Children != nil)
}

// parseChromeTime converts microseconds since 1601 to a time
func parseChromeTime(s string) time.Time {
	us, err := strconv.ParseInt(s, 10, 64)
	if err != nil || us <= 0 {
		return time.Time{}
	}
	return chromeEpoch.Add(time.Duration(us) * time.Microsecond)
}
