package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/telemetry"
)

// GetRules returns the current folder-id and domain-pattern sets
func (e *Engine) GetRules(ctx context.Context) (domain.ExclusionRules, error) {
	return e.rules.GetRules(ctx)
}

// SaveRules validates every pattern before accepting any, persists the
// rules and sweeps active documents that now match. Saves are serialized
// with every other write; the stored rules, the live matcher and the
// document set change together or not at all. Documents removed by an
// earlier rule set are not restored; Reeligible counts the bookmarks that
// the new rules let through again.
func (e *Engine) SaveRules(ctx context.Context, rules domain.ExclusionRules) (result *domain.SweepResult, err error) {
	if err := e.lifecycle.CheckReady(); err != nil {
		return nil, err
	}

	rules = rules.Normalized()
	next, err := domain.NewExclusionMatcher(rules)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, "engine.sweep",
		attribute.Int("folders", len(rules.Folders)),
		attribute.Int("domains", len(rules.Domains)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	var bookmarks []*domain.Bookmark
	if e.bookmarks != nil {
		bookmarks, err = e.bookmarks.Bookmarks(ctx)
		if err != nil {
			// Folder rules cannot be resolved, domain rules still apply
			e.logger.Warn("failed to read bookmarks for sweep", "error", err)
			bookmarks = nil
		}
	}
	chains := folderChains(bookmarks)

	result = &domain.SweepResult{}
	var previous *domain.ExclusionMatcher
	err = e.write(ctx, func(ctx context.Context) error {
		stored, err := e.rules.GetRules(ctx)
		if err != nil {
			return fmt.Errorf("failed to read exclusion rules: %w", err)
		}

		docs, err := e.documents.ListActive(ctx)
		if err != nil {
			return err
		}
		var ids []int64
		for _, doc := range docs {
			if doc.URL == "" || !domain.SubjectToRules(doc.Source) {
				continue
			}
			if next.IsExcluded(domain.ExclusionCandidate{URL: doc.URL, FolderIDs: chains[doc.URL]}) {
				ids = append(ids, doc.ID)
			}
		}

		if err := e.rules.SaveRules(ctx, rules); err != nil {
			return fmt.Errorf("failed to save exclusion rules: %w", err)
		}
		if err := e.documents.SoftDeleteMany(ctx, ids); err != nil {
			if rbErr := e.rules.SaveRules(ctx, stored); rbErr != nil {
				e.logger.Error("failed to restore exclusion rules", "error", rbErr)
			}
			return fmt.Errorf("failed to remove excluded documents: %w", err)
		}

		for _, id := range ids {
			e.index.RemoveDocument(id)
		}
		previous = e.matcher.Swap(next)
		result.Removed = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}
	telemetry.SweepRemoved.Add(float64(result.Removed))

	for _, b := range bookmarks {
		c := b.Candidate()
		if previous.IsExcluded(c) && !next.IsExcluded(c) {
			result.Reeligible++
		}
	}

	e.logger.Info("exclusion rules saved",
		"folders", len(rules.Folders),
		"domains", len(rules.Domains),
		"removed", result.Removed,
		"reeligible", result.Reeligible,
	)
	return result, nil
}

// Folders returns the external bookmark folder tree, or none when no
// bookmark source is configured.
func (e *Engine) Folders(ctx context.Context) ([]*domain.BookmarkFolder, error) {
	if e.bookmarks == nil {
		return []*domain.BookmarkFolder{}, nil
	}
	folders, err := e.bookmarks.Folders(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmark folders: %w", err)
	}
	return folders, nil
}
