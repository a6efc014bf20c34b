package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/custodia-labs/localmind-core/internal/core/domain"
	"github.com/custodia-labs/localmind-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.ChunkStore = (*ChunkStore)(nil)

// ChunkStore implements driven.ChunkStore using PostgreSQL.
// Embeddings are stored alongside the chunk text as packed float32 blobs.
type ChunkStore struct {
	db         *DB
	dimensions int
}

// NewChunkStore creates a new ChunkStore. Stored vectors of any other
// dimension are rejected on read; zero disables the check.
func NewChunkStore(db *DB, dimensions int) *ChunkStore {
	return &ChunkStore{db: db, dimensions: dimensions}
}

const insertChunkQuery = `
	INSERT INTO chunks (document_id, ordinal, content, start_char, end_char, embedding, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id
`

// insertChunks writes chunks inside tx and assigns their ids
func insertChunks(ctx context.Context, tx *sql.Tx, documentID int64, now time.Time, chunks []*domain.Chunk) error {
	for _, chunk := range chunks {
		if chunk.CreatedAt.IsZero() {
			chunk.CreatedAt = now
		}

		var id int64
		err := tx.QueryRowContext(ctx, insertChunkQuery,
			documentID,
			chunk.Ordinal,
			chunk.Content,
			chunk.StartChar,
			chunk.EndChar,
			EncodeVector(chunk.Embedding),
			chunk.CreatedAt,
		).Scan(&id)
		if err != nil {
			return err
		}
		chunk.ID = id
		chunk.DocumentID = documentID
	}
	return nil
}

// InsertChunks inserts chunks for a document in a single transaction
func (s *ChunkStore) InsertChunks(ctx context.Context, documentID int64, chunks []*domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	err := s.db.Transaction(ctx, func(tx *sql.Tx) error {
		return insertChunks(ctx, tx, documentID, time.Now().UTC(), chunks)
	})
	return storageErr("insert chunks", err)
}

// DeleteByDocument deletes all chunks for a document
func (s *ChunkStore) DeleteByDocument(ctx context.Context, documentID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID)
	return storageErr("delete chunks", err)
}

// GetByDocument retrieves all chunks for a document
func (s *ChunkStore) GetByDocument(ctx context.Context, documentID int64) ([]*domain.Chunk, error) {
	query := `
		SELECT id, document_id, ordinal, content, start_char, end_char, embedding, created_at
		FROM chunks
		WHERE document_id = $1
		ORDER BY ordinal ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, storageErr("get chunks", err)
	}
	defer rows.Close()

	var chunks []*domain.Chunk
	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Ordinal,
			&chunk.Content,
			&chunk.StartChar,
			&chunk.EndChar,
			&blob,
			&chunk.CreatedAt,
		)
		if err != nil {
			return nil, storageErr("get chunks", err)
		}
		if chunk.Embedding, err = DecodeVector(blob, s.dimensions); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, storageErr("get chunks", err)
	}
	return chunks, nil
}

// ScanEmbeddings streams the vectors of every active document's chunks.
// Content is not loaded.
func (s *ChunkStore) ScanEmbeddings(ctx context.Context, fn func(*domain.Chunk) error) error {
	query := `
		SELECT c.id, c.document_id, c.ordinal, c.embedding
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE d.deleted_at IS NULL
		ORDER BY c.id ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return storageErr("scan embeddings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var chunk domain.Chunk
		var blob []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &blob); err != nil {
			return storageErr("scan embeddings", err)
		}
		if chunk.Embedding, err = DecodeVector(blob, s.dimensions); err != nil {
			return err
		}
		if err := fn(&chunk); err != nil {
			return err
		}
	}

	return storageErr("scan embeddings", rows.Err())
}
