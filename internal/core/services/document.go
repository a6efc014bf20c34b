package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100

	// titleFromContent is the length of a title derived from content
	titleFromContent = 60
)

// Ingest chunks and embeds the content, then persists the document with
// all of its chunks and indexes them in one write window. Any failure
// leaves nothing searchable.
func (e *Engine) Ingest(ctx context.Context, req domain.IngestRequest) (id int64, err error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return 0, err
	}

	if strings.TrimSpace(req.Content) == "" {
		return 0, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		req.Title = domain.Snippet(req.Content, titleFromContent)
	}
	if req.Source == "" {
		req.Source = domain.SourceNote
	}

	ctx, span := telemetry.StartSpan(ctx, "engine.ingest",
		attribute.String("source", req.Source),
		attribute.Int("content_chars", len(req.Content)),
	)
	defer func() {
		telemetry.IngestTotal.WithLabelValues(req.Source, telemetry.Result(err)).Inc()
		telemetry.EndSpan(span, err)
	}()

	matcher := e.matcher.Load()
	if err := e.checkExcluded(ctx, matcher, req.Source, req.URL); err != nil {
		return 0, err
	}

	chunks, err := e.prepareChunks(ctx, req.Content)
	if err != nil {
		return 0, err
	}

	doc := &domain.Document{
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
		Source:  req.Source,
	}

	err = e.write(ctx, func(ctx context.Context) error {
		// Rules saved while we were embedding apply to this document too
		if current := e.matcher.Load(); current != matcher {
			if err := e.checkExcluded(ctx, current, req.Source, req.URL); err != nil {
				return err
			}
		}

		if err := e.documents.CreateWithChunks(ctx, doc, chunks); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}

		if err := e.index.Add(indexEntries(chunks)...); err != nil {
			e.logger.Error("failed to index document, rolling back",
				"document_id", doc.ID,
				"error", err,
			)
			if perr := e.documents.Purge(ctx, doc.ID); perr != nil {
				e.logger.Error("failed to purge unindexed document",
					"document_id", doc.ID,
					"error", perr,
				)
			}
			return fmt.Errorf("failed to index document: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger.Info("document ingested",
		"document_id", doc.ID,
		"source", doc.Source,
		"chunks", len(chunks),
	)
	return doc.ID, nil
}

// Update replaces title and content. The new chunk set is embedded before
// the write window and swapped in together with the index entries.
func (e *Engine) Update(ctx context.Context, id int64, req domain.UpdateDocumentRequest) (*domain.Document, error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", domain.ErrValidation)
	}

	doc, err := e.documents.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) != "" {
		doc.Title = req.Title
	}
	doc.Content = req.Content

	if err := e.replace(ctx, doc); err != nil {
		return nil, err
	}

	e.logger.Info("document updated", "document_id", id)
	return doc, nil
}

// replace re-chunks and re-embeds doc and swaps its stored and indexed chunks
func (e *Engine) replace(ctx context.Context, doc *domain.Document) error {
	ctx, span := telemetry.StartSpan(ctx, "engine.replace", attribute.Int64("document_id", doc.ID))
	var err error
	defer func() { telemetry.EndSpan(span, err) }()

	chunks, err := e.prepareChunks(ctx, doc.Content)
	if err != nil {
		return err
	}

	err = e.write(ctx, func(ctx context.Context) error {
		previous, err := e.documents.Get(ctx, doc.ID)
		if err != nil {
			return err
		}
		previousChunks, err := e.chunks.GetByDocument(ctx, doc.ID)
		if err != nil {
			return fmt.Errorf("failed to read document chunks: %w", err)
		}

		if err := e.documents.ReplaceContent(ctx, doc, chunks); err != nil {
			return fmt.Errorf("failed to replace document content: %w", err)
		}
		e.index.RemoveDocument(doc.ID)
		if err := e.index.Add(indexEntries(chunks)...); err != nil {
			e.logger.Error("failed to index replaced chunks, restoring previous content",
				"document_id", doc.ID,
				"error", err,
			)
			e.restore(ctx, previous, previousChunks)
			return fmt.Errorf("failed to index document: %w", err)
		}
		return nil
	})
	return err
}

// restore puts back a document's previous content and index entries after
// a failed replace. Must be called inside the write window.
func (e *Engine) restore(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) {
	e.index.RemoveDocument(doc.ID)
	if err := e.documents.ReplaceContent(ctx, doc, chunks); err != nil {
		e.logger.Error("failed to restore document content", "document_id", doc.ID, "error", err)
		return
	}
	if err := e.index.Add(indexEntries(chunks)...); err != nil {
		e.logger.Error("failed to restore index entries", "document_id", doc.ID, "error", err)
	}
}

// Delete soft-deletes a document, removing its chunks from store and index
func (e *Engine) Delete(ctx context.Context, id int64) error {
	if err := e.lifecycle.CheckReady(); err != nil {
		return err
	}

	err := e.write(ctx, func(ctx context.Context) error {
		if err := e.documents.SoftDelete(ctx, id); err != nil {
			return err
		}
		e.index.RemoveDocument(id)
		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("document deleted", "document_id", id)
	return nil
}

// Get retrieves an active document by ID
func (e *Engine) Get(ctx context.Context, id int64) (*domain.Document, error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}
	return e.documents.Get(ctx, id)
}

// Exists reports whether an active document was ingested from url
func (e *Engine) Exists(ctx context.Context, url string) (bool, error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return false, err
	}
	if strings.TrimSpace(url) == "" {
		return false, fmt.Errorf("%w: url is required", domain.ErrValidation)
	}
	return e.documents.ExistsByURL(ctx, url)
}

// Chunks retrieves the chunks of an active document in ordinal order
func (e *Engine) Chunks(ctx context.Context, id int64) ([]*domain.Chunk, error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if _, err := e.documents.Get(ctx, id); err != nil {
		return nil, err
	}
	return e.chunks.GetByDocument(ctx, id)
}

// Recent returns the most recently created active documents
func (e *Engine) Recent(ctx context.Context, limit int) ([]domain.DocumentSummary, error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	docs, err := e.documents.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, doc.Summary(e.cfg.SnippetLength))
	}
	return summaries, nil
}

// Reindex re-chunks and re-embeds every active document, one at a time.
// It stops at the first failure and returns how many documents were done.
func (e *Engine) Reindex(ctx context.Context) (int, error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return 0, err
	}

	docs, err := e.documents.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	e.logger.Info("reindex starting", "documents", len(docs))

	done := 0
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := e.replace(ctx, doc); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // deleted since the listing
			}
			return done, fmt.Errorf("reindex document %d: %w", doc.ID, err)
		}
		done++
	}

	e.logger.Info("reindex completed", "documents", done, "chunks", e.index.Len())
	return done, nil
}

// prepareChunks windows content and embeds every window with bounded
// parallelism. The first embedding failure cancels the rest.
func (e *Engine) prepareChunks(ctx context.Context, content string) ([]*domain.Chunk, error) {
	var chunks []*domain.Chunk
	for ordinal, c := range e.pipeline.Process(content) {
		chunks = append(chunks, &domain.Chunk{
			Ordinal:   ordinal,
			Content:   c.Content,
			StartChar: c.StartOffset,
			EndChar:   c.EndOffset,
		})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: content produced no chunks", domain.ErrValidation)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, e.cfg.EmbedConcurrency))
	for _, chunk := range chunks {
		g.Go(func() error {
			vector, err := e.embedder.Embed(gctx, chunk.Content)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", chunk.Ordinal, err)
			}
			chunk.Embedding = vector
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// checkExcluded returns domain.ErrExcluded when a rule-governed source URL
// matches the domain rules or sits in an excluded bookmark folder.
func (e *Engine) checkExcluded(ctx context.Context, matcher *domain.ExclusionMatcher, source, url string) error {
	if matcher == nil || url == "" || !domain.SubjectToRules(source) {
		return nil
	}

	candidate := domain.ExclusionCandidate{URL: url}
	if matcher.HasFolderRules() && e.bookmarks != nil {
		bookmarks, err := e.bookmarks.Bookmarks(ctx)
		if err != nil {
			e.logger.Warn("failed to read bookmarks for folder rules", "error", err)
		} else {
			candidate.FolderIDs = folderChains(bookmarks)[url]
		}
	}

	if matcher.IsExcluded(candidate) {
		return fmt.Errorf("%w: %s", domain.ErrExcluded, url)
	}
	return nil
}

// folderChains maps each bookmarked URL to the union of its folder chains
func folderChains(bookmarks []*domain.Bookmark) map[string][]string {
	chains := make(map[string][]string, len(bookmarks))
	for _, b := range bookmarks {
		chains[b.URL] = append(chains[b.URL], b.FolderIDs...)
	}
	return chains
}

func indexEntries(chunks []*domain.Chunk) []driven.IndexEntry {
	entries := make([]driven.IndexEntry, len(chunks))
	for i, c := range chunks {
		entries[i] = driven.IndexEntry{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Vector:     c.Embedding,
		}
	}
	return entries
}
