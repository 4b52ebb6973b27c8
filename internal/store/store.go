// Package store defines the persistence boundary for documents and chunks.
// The engine talks to a DocumentStore and never to a concrete backend, so
// the in-memory store and the Postgres repository are interchangeable.
package store

import (
	"context"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

// DocumentStore persists documents and their chunks. Implementations must
// assign Document.Seq monotonically in creation order, and DeleteDocument
// must cascade to the document's chunks.
type DocumentStore interface {
	// CreateDocument persists a new document and assigns its Seq.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// SetDocumentStatus updates the processing status and warning of a document.
	SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, warning string) error

	// GetDocument returns a document by ID, or domain.ErrDocumentNotFound.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents in upload (Seq) order.
	ListDocuments(ctx context.Context) ([]*domain.Document, error)

	// DeleteDocument removes a document and all of its chunks, or returns
	// domain.ErrDocumentNotFound.
	DeleteDocument(ctx context.Context, id string) error

	// CreateChunks persists the chunks of a document.
	CreateChunks(ctx context.Context, chunks []domain.Chunk) error

	// ListChunks returns every chunk in the store, ordered by the owning
	// document's Seq and then by chunk Index.
	ListChunks(ctx context.Context) ([]domain.Chunk, error)

	// Counts reports the number of documents and chunks in the store.
	Counts(ctx context.Context) (docs int, chunks int, err error)
}
