package mocks

import (
	"context"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var _ driven.BookmarkSource = (*MockBookmarkSource)(nil)

// MockBookmarkSource serves a fixed bookmark tree
type MockBookmarkSource struct {
	FolderTree []*domain.BookmarkFolder
	Items      []*domain.Bookmark
	Err        error
}

func (m *MockBookmarkSource) Folders(ctx context.Context) ([]*domain.BookmarkFolder, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.FolderTree, nil
}

func (m *MockBookmarkSource) Bookmarks(ctx context.Context) ([]*domain.Bookmark, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Items, nil
}
