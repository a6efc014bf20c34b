package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven/mocks"
)

func bookmarkEngine(t *testing.T, items []*domain.Bookmark, pages *mocks.MockPageFetcher, configure ...func(*EngineOptions)) *testEngine {
	t.Helper()
	source := &mocks.MockBookmarkSource{Items: items}
	return newReadyEngine(t, append([]func(*EngineOptions){func(o *EngineOptions) {
		o.Bookmarks = source
		o.Pages = pages
	}}, configure...)...)
}

func TestIngestBookmarks(t *testing.T) {
	items := []*domain.Bookmark{
		{ID: "b1", Title: "Rust book", URL: "https://rust.example.org/own", FolderIDs: []string{"5", "1"}},
		{ID: "b2", Title: "Blocked", URL: "https://www.blocked.com/a", FolderIDs: []string{"1"}},
		{ID: "b3", Title: "Already", URL: "https://seen.example.org/", FolderIDs: []string{"1"}},
		{ID: "b4", Title: "Dead", URL: "https://dead.example.org/", FolderIDs: []string{"1"}},
		{ID: "b5", Title: "", URL: "https://private.example.org/x", FolderIDs: []string{"9", "1"}},
	}
	pages := &mocks.MockPageFetcher{Pages: map[string]*domain.Page{
		"https://rust.example.org/own":  {Title: "Ownership", Content: "Every value in Rust has a single owner."},
		"https://www.blocked.com/a":     {Title: "Blocked", Content: "never fetched"},
		"https://seen.example.org/":     {Title: "Seen", Content: "never fetched"},
		"https://private.example.org/x": {Title: "Private", Content: "never fetched"},
	}}
	te := bookmarkEngine(t, items, pages)
	ctx := context.Background()

	if _, err := te.Ingest(ctx, domain.IngestRequest{
		Title: "Seen", Content: "captured earlier", URL: "https://seen.example.org/", Source: domain.SourceCapture,
	}); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := te.SaveRules(ctx, domain.ExclusionRules{
		Domains: []string{"*.blocked.com"},
		Folders: []string{"9"},
	}); err != nil {
		t.Fatalf("SaveRules: %v", err)
	}

	result, err := te.IngestBookmarks(ctx)
	if err != nil {
		t.Fatalf("IngestBookmarks: %v", err)
	}
	want := domain.BookmarkSyncResult{Ingested: 1, Existing: 1, Excluded: 2, Dead: 1}
	if *result != want {
		t.Errorf("expected %+v, got %+v", want, *result)
	}

	fetched := pages.Fetched()
	for _, skipped := range []string{"https://www.blocked.com/a", "https://seen.example.org/", "https://private.example.org/x"} {
		if slices.Contains(fetched, skipped) {
			t.Errorf("%s must not be fetched", skipped)
		}
	}

	search, err := te.Search(ctx, "value single owner rust", domain.SearchOptions{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(search.Hits) == 0 {
		t.Fatal("expected the bookmarked page to be searchable")
	}
	doc, err := te.Get(ctx, search.Hits[0].DocumentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.Source != domain.SourceBookmark || doc.Title != "Rust book" || doc.URL != "https://rust.example.org/own" {
		t.Errorf("unexpected document %+v", doc)
	}

	again, err := te.IngestBookmarks(ctx)
	if err != nil {
		t.Fatalf("second IngestBookmarks: %v", err)
	}
	if again.Ingested != 0 || again.Existing != 2 {
		t.Errorf("second pass must only find existing pages, got %+v", *again)
	}
}

func TestIngestBookmarks_FetchIsBounded(t *testing.T) {
	items := []*domain.Bookmark{
		{ID: "slow", Title: "Slow", URL: "https://slow.example.org/"},
		{ID: "fast", Title: "Fast", URL: "https://fast.example.org/"},
	}
	pages := &mocks.MockPageFetcher{FetchFn: func(ctx context.Context, url string) (*domain.Page, error) {
		if _, ok := ctx.Deadline(); !ok {
			t.Errorf("fetch of %s has no deadline", url)
		}
		if url == "https://slow.example.org/" {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &domain.Page{Content: "fast page body"}, nil
	}}
	te := bookmarkEngine(t, items, pages, func(o *EngineOptions) { o.PageTimeout = 20 * time.Millisecond })

	result, err := te.IngestBookmarks(context.Background())
	if err != nil {
		t.Fatalf("IngestBookmarks: %v", err)
	}
	if result.Failed != 1 || result.Ingested != 1 {
		t.Errorf("expected the slow page to fail and the fast one to land, got %+v", *result)
	}
}

func TestIngestBookmarks_EmptyPageAndTitleFallback(t *testing.T) {
	items := []*domain.Bookmark{
		{ID: "empty", Title: "Empty", URL: "https://empty.example.org/"},
		{ID: "untitled", URL: "https://untitled.example.org/"},
	}
	pages := &mocks.MockPageFetcher{Pages: map[string]*domain.Page{
		"https://empty.example.org/":    {Title: "Empty", Content: "   "},
		"https://untitled.example.org/": {Title: "Page title", Content: "Some body text."},
	}}
	te := bookmarkEngine(t, items, pages)
	ctx := context.Background()

	result, err := te.IngestBookmarks(ctx)
	if err != nil {
		t.Fatalf("IngestBookmarks: %v", err)
	}
	if result.Failed != 1 || result.Ingested != 1 {
		t.Errorf("unexpected result %+v", *result)
	}

	recent, err := te.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Title != "Page title" {
		t.Errorf("expected the page title as fallback, got %+v", recent)
	}
}

func TestIngestBookmarks_RequiresCollaborators(t *testing.T) {
	te := newReadyEngine(t)
	if _, err := te.IngestBookmarks(context.Background()); !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestIngestBookmarks_NotReady(t *testing.T) {
	te := newTestEngine(t)
	if _, err := te.IngestBookmarks(context.Background()); !errors.Is(err, domain.ErrNotReady) {
		t.Errorf("expected ErrNotReady, got %v", err)
	}
}

func TestBookmarkTitle(t *testing.T) {
	page := &domain.Page{Title: " Page "}
	if got := bookmarkTitle(&domain.Bookmark{Title: "Named", URL: "u"}, page); got != "Named" {
		t.Errorf("got %q", got)
	}
	if got := bookmarkTitle(&domain.Bookmark{URL: "u"}, page); got != "Page" {
		t.Errorf("got %q", got)
	}
	if got := bookmarkTitle(&domain.Bookmark{URL: "u"}, &domain.Page{}); got != "u" {
		t.Errorf("got %q", got)
	}
}
