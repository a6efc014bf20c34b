package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL.
// Deleted documents keep their row with deleted_at set and lose their chunks.
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// CreateWithChunks inserts a document and its chunks in one transaction
func (s *DocumentStore) CreateWithChunks(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO documents (title, content, url, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, query,
			doc.Title,
			doc.Content,
			nullString(doc.URL),
			doc.Source,
			doc.CreatedAt,
		).Scan(&id)
		if err != nil {
			return err
		}

		if err := insertChunks(ctx, tx, id, doc.CreatedAt, chunks); err != nil {
			return err
		}
		doc.ID = id
		return nil
	})
	return storageErr("create document", err)
}

// ReplaceContent updates title and content and swaps the chunk set in one transaction
func (s *DocumentStore) ReplaceContent(ctx context.Context, doc *domain.Document, chunks []*domain.Chunk) error {
	query := `
		UPDATE documents
		SET title = $2, content = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, doc.ID, doc.Title, doc.Content)
		if err != nil {
			return err
		}
		if err := requireRow(result); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, doc.ID); err != nil {
			return err
		}
		return insertChunks(ctx, tx, doc.ID, time.Now().UTC(), chunks)
	})
	return storageErr("replace document", err)
}

// SoftDelete marks a document deleted and removes its chunks in one transaction
func (s *DocumentStore) SoftDelete(ctx context.Context, id int64) error {
	query := `
		UPDATE documents
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return err
		}
		if err := requireRow(result); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, id)
		return err
	})
	return storageErr("delete document", err)
}

// SoftDeleteMany marks all listed documents deleted in one transaction
func (s *DocumentStore) SoftDeleteMany(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	query := `
		UPDATE documents
		SET deleted_at = NOW()
		WHERE id = ANY($1) AND deleted_at IS NULL
	`

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, pq.Array(ids))
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected != int64(len(ids)) {
			return domain.ErrNotFound
		}

		_, err = tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ANY($1)`, pq.Array(ids))
		return err
	})
	return storageErr("delete documents", err)
}

// Purge physically removes a document; chunks cascade
func (s *DocumentStore) Purge(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return storageErr("purge document", err)
}

// Get retrieves an active document by ID
func (s *DocumentStore) Get(ctx context.Context, id int64) (*domain.Document, error) {
	query := `
		SELECT id, title, content, url, source, created_at
		FROM documents
		WHERE id = $1 AND deleted_at IS NULL
	`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get document", err)
	}
	return doc, nil
}

// ListRecent returns active documents ordered by creation time descending
func (s *DocumentStore) ListRecent(ctx context.Context, limit int) ([]*domain.Document, error) {
	query := `
		SELECT id, title, content, url, source, created_at
		FROM documents
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	return s.list(ctx, "list recent documents", query, limit)
}

// ListActive returns every active document in id order
func (s *DocumentStore) ListActive(ctx context.Context) ([]*domain.Document, error) {
	query := `
		SELECT id, title, content, url, source, created_at
		FROM documents
		WHERE deleted_at IS NULL
		ORDER BY id ASC
	`

	return s.list(ctx, "list documents", query)
}

// ExistsByURL reports whether an active document has this source URL
func (s *DocumentStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM documents WHERE url = $1 AND deleted_at IS NULL)`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, url).Scan(&exists); err != nil {
		return false, storageErr("document exists", err)
	}
	return exists, nil
}

// Count returns the active document count
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, storageErr("count documents", err)
	}
	return count, nil
}

func (s *DocumentStore) list(ctx context.Context, op, query string, args ...interface{}) ([]*domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return docs, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var url sql.NullString

	err := row.Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&url,
		&doc.Source,
		&doc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	doc.URL = url.String
	return &doc, nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
