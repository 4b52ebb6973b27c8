// Package repository implements the document store on PostgreSQL via pgx.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DocumentRepository persists documents and chunks in PostgreSQL.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func NewDocumentRepositoryWithTx(tx pgx.Tx) *DocumentRepository {
	return &DocumentRepository{db: tx}
}

func (r *DocumentRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if err := domain.ValidateDocument(doc); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO documents (id, filename, byte_size, status, warning, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING seq`,
		doc.ID, doc.Filename, doc.Size, doc.Status, doc.Warning, doc.UploadedAt,
	).Scan(&doc.Seq)
}

func (r *DocumentRepository) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, warning string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE documents SET status = $1, warning = $2 WHERE id = $3`,
		status, warning, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.QueryRow(ctx,
		`SELECT d.id, d.seq, d.filename, d.byte_size, d.status, d.warning, d.uploaded_at,
		        COALESCE(array_agg(c.id::text ORDER BY c.chunk_index) FILTER (WHERE c.id IS NOT NULL), '{}')
		 FROM documents d
		 LEFT JOIN chunks c ON c.document_id = d.id
		 WHERE d.id = $1
		 GROUP BY d.id`,
		id,
	).Scan(&doc.ID, &doc.Seq, &doc.Filename, &doc.Size, &doc.Status, &doc.Warning, &doc.UploadedAt, &doc.ChunkIDs)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	rows, err := r.db.Query(ctx,
		`SELECT d.id, d.seq, d.filename, d.byte_size, d.status, d.warning, d.uploaded_at,
		        COALESCE(array_agg(c.id::text ORDER BY c.chunk_index) FILTER (WHERE c.id IS NOT NULL), '{}')
		 FROM documents d
		 LEFT JOIN chunks c ON c.document_id = d.id
		 GROUP BY d.id
		 ORDER BY d.seq`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(&doc.ID, &doc.Seq, &doc.Filename, &doc.Size, &doc.Status, &doc.Warning, &doc.UploadedAt, &doc.ChunkIDs); err != nil {
			return nil, err
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	// Chunks go with the document via ON DELETE CASCADE.
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *DocumentRepository) CreateChunks(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := domain.ValidateChunk(&chunks[i]); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid chunk", err)
		}
	}

	for _, c := range chunks {
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks (id, document_id, chunk_index, content, char_length)
			 VALUES ($1, $2, $3, $4, $5)`,
			c.ID, c.DocumentID, c.Index, c.Content, c.Length,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return domain.ErrDocumentNotFound
			}
			return err
		}
	}
	return nil
}

func (r *DocumentRepository) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.document_id, c.chunk_index, c.content, c.char_length
		 FROM chunks c
		 JOIN documents d ON d.id = c.document_id
		 ORDER BY d.seq, c.chunk_index`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		var c domain.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &c.Length); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (r *DocumentRepository) Counts(ctx context.Context) (int, int, error) {
	var docs, chunks int
	err := r.db.QueryRow(ctx,
		`SELECT (SELECT count(*) FROM documents), (SELECT count(*) FROM chunks)`,
	).Scan(&docs, &chunks)
	if err != nil {
		return 0, 0, err
	}
	return docs, chunks, nil
}
