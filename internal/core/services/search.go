package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
)

// Search embeds the query, ranks every indexed chunk and keeps the best
// chunk of each document. The cutoff is explicit or adaptive.
func (e *Engine) Search(ctx context.Context, query string, opts domain.SearchOptions) (result *domain.SearchResult, err error) {
	start := time.Now()
	defer func() {
		telemetry.SearchTotal.WithLabelValues("search", telemetry.Result(err)).Inc()
		telemetry.SearchDuration.Observe(time.Since(start).Seconds())
	}()

	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if opts.Cutoff != nil {
		if err := validateCutoff(*opts.Cutoff); err != nil {
			return nil, err
		}
	}

	ctx, span := telemetry.StartSpan(ctx, "engine.search", attribute.Int("query_chars", len(query)))
	defer func() { telemetry.EndSpan(span, err) }()

	candidates, err := e.rank(ctx, query)
	if err != nil {
		return nil, err
	}

	cutoff := 0.0
	adaptive := opts.Cutoff == nil
	if adaptive {
		scores := make([]float64, len(candidates))
		for i, c := range candidates {
			scores[i] = c.Score
		}
		cutoff = domain.AdaptiveThreshold(scores, e.cfg.MinThreshold)
	} else {
		cutoff = *opts.Cutoff
	}

	result = filterCandidates(query, candidates, cutoff)
	result.Adaptive = adaptive
	result.Took = time.Since(start)

	e.logger.Debug("search completed",
		"candidates", result.Candidates,
		"hits", len(result.Hits),
		"cutoff", cutoff,
		"adaptive", adaptive,
	)
	return result, nil
}

// LoadMore lowers the cutoff by one step and re-filters the candidate set
// of the same query string. A query whose candidates were evicted, or
// purged by a write, is ranked again.
func (e *Engine) LoadMore(ctx context.Context, query string, currentCutoff float64) (result *domain.SearchResult, err error) {
	start := time.Now()
	defer func() {
		telemetry.SearchTotal.WithLabelValues("load_more", telemetry.Result(err)).Inc()
	}()

	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrValidation)
	}
	if err := validateCutoff(currentCutoff); err != nil {
		return nil, err
	}

	cutoff := domain.LowerCutoff(currentCutoff, e.cfg.LoadMoreStep)

	e.mu.RLock()
	cached, ok := e.candidates.Get(query)
	e.mu.RUnlock()

	var candidates []domain.SearchHit
	if ok {
		candidates = cached.([]domain.SearchHit)
	} else {
		candidates, err = e.rank(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	result = filterCandidates(query, candidates, cutoff)
	result.Took = time.Since(start)
	return result, nil
}

// rank returns the per-document candidates of a query, best first, capped
// at MaxResults documents. The candidate set is cached for LoadMore.
func (e *Engine) rank(ctx context.Context, query string) ([]domain.SearchHit, error) {
	vector, err := e.queryVector(ctx, query)
	if err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	scored, err := e.index.Search(vector, e.index.Len())
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			e.logger.Error("query embedding does not fit the index", "error", err)
		}
		return nil, err
	}

	seen := make(map[int64]struct{})
	candidates := make([]domain.SearchHit, 0, min(len(scored), e.cfg.MaxResults))
	for _, sc := range scored {
		if len(candidates) >= e.cfg.MaxResults {
			break
		}
		if _, ok := seen[sc.DocumentID]; ok {
			continue
		}
		seen[sc.DocumentID] = struct{}{}

		doc, err := e.documents.Get(ctx, sc.DocumentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				e.logger.Warn("indexed chunk has no active document",
					"chunk_id", sc.ChunkID,
					"document_id", sc.DocumentID,
				)
				continue
			}
			return nil, err
		}

		candidates = append(candidates, domain.SearchHit{
			DocumentID: doc.ID,
			ChunkID:    sc.ChunkID,
			Title:      doc.Title,
			URL:        doc.URL,
			Snippet:    domain.Snippet(doc.Content, e.cfg.SnippetLength),
			Score:      roundScore(sc.Score),
			CreatedAt:  doc.CreatedAt,
		})
	}

	// Safe under the read lock: writers purge only while holding the write lock
	e.candidates.Add(query, candidates)
	return candidates, nil
}

// queryVector embeds a query through the query cache
func (e *Engine) queryVector(ctx context.Context, query string) ([]float32, error) {
	if e.queryCache != nil {
		if v, ok := e.queryCache.Get(ctx, query); ok {
			return v, nil
		}
	}

	v, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if e.queryCache != nil {
		e.queryCache.Put(ctx, query, v)
	}
	return v, nil
}

// filterCandidates keeps candidates scoring at or above cutoff
func filterCandidates(query string, candidates []domain.SearchHit, cutoff float64) *domain.SearchResult {
	hits := make([]domain.SearchHit, 0, len(candidates))
	for _, c := range candidates {
		if c.Score >= cutoff {
			hits = append(hits, c)
		}
	}
	return &domain.SearchResult{
		Query:      query,
		Cutoff:     cutoff,
		Hits:       hits,
		Candidates: len(candidates),
		HasMore:    len(hits) < len(candidates),
	}
}

func validateCutoff(cutoff float64) error {
	if math.IsNaN(cutoff) || cutoff < 0 || cutoff > 1 {
		return fmt.Errorf("%w: cutoff must be in [0, 1]", domain.ErrValidation)
	}
	return nil
}

// roundScore widens a similarity to float64, dropping float32 noise below 1e-6
func roundScore(score float32) float64 {
	return math.Round(float64(score)*1e6) / 1e6
}
