package domain

import "time"

// BookmarkFolder is a node of the external bookmark tree
type BookmarkFolder struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Path     []string          `json:"path"`  // folder names from the root, inclusive
	Count    int               `json:"count"` // bookmarks in this folder and its subfolders
	Children []*BookmarkFolder `json:"children,omitempty"`
}

// Bookmark is a URL entry of the external bookmark tree
type Bookmark struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	URL     string    `json:"url"`
	AddedAt time.Time `json:"added_at"`

	// FolderIDs holds the containing folder id followed by its ancestors
	FolderIDs []string `json:"folder_ids"`
}

// Candidate converts the bookmark to an exclusion candidate
func (b *Bookmark) Candidate() ExclusionCandidate {
	return ExclusionCandidate{URL: b.URL, FolderIDs: b.FolderIDs}
}

// BookmarkSyncResult reports one bookmark ingestion pass
type BookmarkSyncResult struct {
	Ingested int `json:"ingested"`
	Existing int `json:"existing"` // already in the store
	Excluded int `json:"excluded"`
	Dead     int `json:"dead"` // 404 or 410
	Failed   int `json:"failed"`
}

// Page is the readable text of a fetched web page
type Page struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
