package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

var (
	_ driven.DocumentStore = (*MockStore)(nil)
	_ driven.ChunkStore    = (*MockStore)(nil)
)

// MockStore is an in-memory DocumentStore and ChunkStore sharing one state.
// Every mutating call is all-or-nothing like the transactional store.
type MockStore struct {
	mu        sync.RWMutex
	nextDocID int64
	nextChkID int64
	documents map[int64]*domain.Document
	chunks    map[int64][]*domain.Chunk

	// Failure injection (optional)
	CreateErr       error
	ReplaceErr      error
	SoftDeleteErr   error
	InsertChunksErr error
	ScanErr         error

	// Now overrides the clock for created_at
	Now func() time.Time
}

// NewMockStore creates a new MockStore
func NewMockStore() *MockStore {
	return &MockStore{
		documents: make(map[int64]*domain.Document),
		chunks:    make(map[int64][]*domain.Chunk),
	}
}

func (m *MockStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *MockStore) CreateWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}

	m.nextDocID++
	doc.ID = m.nextDocID
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = m.now()
	}
	stored := *doc
	m.documents[doc.ID] = &stored
	m.chunks[doc.ID] = m.copyChunks(doc.ID, chunks)
	return nil
}

func (m *MockStore) ReplaceContent(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReplaceErr != nil {
		return m.ReplaceErr
	}

	existing, ok := m.documents[doc.ID]
	if !ok || existing.Deleted {
		return domain.ErrNotFound
	}
	existing.Title = doc.Title
	existing.Content = doc.Content
	m.chunks[doc.ID] = m.copyChunks(doc.ID, chunks)
	return nil
}

func (m *MockStore) SoftDelete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SoftDeleteErr != nil {
		return m.SoftDeleteErr
	}

	doc, ok := m.documents[id]
	if !ok || doc.Deleted {
		return domain.ErrNotFound
	}
	doc.Deleted = true
	delete(m.chunks, id)
	return nil
}

func (m *MockStore) SoftDeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SoftDeleteErr != nil {
		return m.SoftDeleteErr
	}

	for _, id := range ids {
		if doc, ok := m.documents[id]; !ok || doc.Deleted {
			return domain.ErrNotFound
		}
	}
	for _, id := range ids {
		m.documents[id].Deleted = true
		delete(m.chunks, id)
	}
	return nil
}

func (m *MockStore) Purge(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.documents, id)
	delete(m.chunks, id)
	return nil
}

func (m *MockStore) Get(ctx context.Context, id int64) (*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok || doc.Deleted {
		return nil, domain.ErrNotFound
	}
	out := *doc
	return &out, nil
}

func (m *MockStore) ListRecent(ctx context.Context, limit int) ([]*domain.Document, error) {
	docs, _ := m.ListActive(ctx)
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *MockStore) ListActive(ctx context.Context) ([]*domain.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []*domain.Document
	for _, doc := range m.documents {
		if !doc.Deleted {
			out := *doc
			docs = append(docs, &out)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (m *MockStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, doc := range m.documents {
		if !doc.Deleted && doc.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockStore) Count(ctx context.Context) (int, error) {
	docs, _ := m.ListActive(ctx)
	return len(docs), nil
}

func (m *MockStore) InsertChunks(ctx context.Context, documentID int64, chunks []*domain.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertChunksErr != nil {
		return m.InsertChunksErr
	}
	if _, ok := m.documents[documentID]; !ok {
		return domain.ErrNotFound
	}
	m.chunks[documentID] = append(m.chunks[documentID], m.copyChunks(documentID, chunks)...)
	return nil
}

func (m *MockStore) DeleteByDocument(ctx context.Context, documentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chunks, documentID)
	return nil
}

func (m *MockStore) GetByDocument(ctx context.Context, documentID int64) ([]*domain.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Chunk, 0, len(m.chunks[documentID]))
	for _, c := range m.chunks[documentID] {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out, nil
}

func (m *MockStore) ScanEmbeddings(ctx context.Context, fn func(*domain.Chunk) error) error {
	if m.ScanErr != nil {
		return m.ScanErr
	}
	docs, _ := m.ListActive(ctx)
	for _, doc := range docs {
		chunks, _ := m.GetByDocument(ctx, doc.ID)
		for _, c := range chunks {
			if err := fn(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// copyChunks assigns ids on the caller's chunks and returns stored copies.
// Callers must hold m.mu.
func (m *MockStore) copyChunks(documentID int64, chunks []*domain.Chunk) []*domain.Chunk {
	out := make([]*domain.Chunk, 0, len(chunks))
	for _, c := range chunks {
		m.nextChkID++
		c.ID = m.nextChkID
		c.DocumentID = documentID
		if c.CreatedAt.IsZero() {
			c.CreatedAt = m.now()
		}
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// Helper methods for testing

// ChunkCount returns the number of stored chunks for a document
func (m *MockStore) ChunkCount(documentID int64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks[documentID])
}

// DocumentCount returns the number of stored rows including soft-deleted ones
func (m *MockStore) DocumentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.documents)
}

// IsDeleted reports whether a stored document is soft-deleted
func (m *MockStore) IsDeleted(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	return ok && doc.Deleted
}
