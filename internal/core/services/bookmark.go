package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
)

// IngestBookmarks fetches every bookmarked page that is neither excluded
// nor already stored and ingests it with the bookmark source. Pages that
// cannot be fetched are counted and skipped; the pass stops only when ctx
// is cancelled or the engine stops being ready.
func (e *Engine) IngestBookmarks(ctx context.Context) (result *domain.BookmarkSyncResult, err error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}
	if e.bookmarks == nil || e.pages == nil {
		return nil, fmt.Errorf("%w: bookmark ingestion needs a bookmark source and a page fetcher", domain.ErrConfiguration)
	}

	ctx, span := telemetry.StartSpan(ctx, "engine.bookmarks")
	defer func() { telemetry.EndSpan(span, err) }()

	bookmarks, err := e.bookmarks.Bookmarks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}

	result = &domain.BookmarkSyncResult{}
	for _, b := range bookmarks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if e.matcher.Load().IsExcluded(b.Candidate()) {
			result.Excluded++
			continue
		}

		exists, err := e.documents.ExistsByURL(ctx, b.URL)
		if err != nil {
			return result, err
		}
		if exists {
			result.Existing++
			continue
		}

		page, err := e.fetchPage(ctx, b.URL)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				result.Dead++
			} else {
				result.Failed++
			}
			e.logger.Warn("skipping bookmark", "url", b.URL, "error", err)
			continue
		}

		_, err = e.Ingest(ctx, domain.IngestRequest{
			Title:   bookmarkTitle(b, page),
			Content: page.Content,
			URL:     b.URL,
			Source:  domain.SourceBookmark,
		})
		switch {
		case err == nil:
			result.Ingested++
		case errors.Is(err, domain.ErrExcluded):
			// Rules saved during the pass
			result.Excluded++
		case errors.Is(err, domain.ErrNotReady), ctx.Err() != nil:
			return result, err
		default:
			result.Failed++
			e.logger.Warn("failed to ingest bookmark", "url", b.URL, "error", err)
		}
	}

	e.logger.Info("bookmarks ingested",
		"ingested", result.Ingested,
		"existing", result.Existing,
		"excluded", result.Excluded,
		"dead", result.Dead,
		"failed", result.Failed,
	)
	return result, nil
}

func (e *Engine) fetchPage(ctx context.Context, url string) (*domain.Page, error) {
	fctx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	page, err := e.pages.Fetch(fctx, url)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(page.Content) == "" {
		return nil, fmt.Errorf("%w: page has no text", domain.ErrValidation)
	}
	return page, nil
}

// bookmarkTitle prefers the bookmark name, then the page title, then the URL
func bookmarkTitle(b *domain.Bookmark, page *domain.Page) string {
	for _, t := range []string{b.Title, page.Title} {
		if t = strings.TrimSpace(t); t != "" {
			return t
		}
	}
	return b.URL
}
