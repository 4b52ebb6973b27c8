package store

import (
	"context"
	"sort"
	"sync"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

// Memory is an in-process DocumentStore backed by maps. It is the default
// backend when no database is configured, and the backend used by tests.
type Memory struct {
	mu      sync.Mutex
	docs    map[string]*domain.Document
	chunks  map[string]domain.Chunk
	nextSeq int64
}

// NewMemory creates an empty in-memory document store.
func NewMemory() *Memory {
	return &Memory{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string]domain.Chunk),
	}
}

func (s *Memory) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if err := domain.ValidateDocument(doc); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid document", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return domain.NewDomainError(domain.ErrCodeInvalidOperation, "document already exists")
	}

	s.nextSeq++
	doc.Seq = s.nextSeq

	stored := *doc
	stored.ChunkIDs = append([]string(nil), doc.ChunkIDs...)
	s.docs[doc.ID] = &stored
	return nil
}

func (s *Memory) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus, warning string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.Status = status
	doc.Warning = warning
	return nil
}

func (s *Memory) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return copyDocument(doc), nil
}

func (s *Memory) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := make([]*domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		docs = append(docs, copyDocument(doc))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Seq < docs[j].Seq })
	return docs, nil
}

func (s *Memory) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[id]; !ok {
		return domain.ErrDocumentNotFound
	}
	delete(s.docs, id)
	for chunkID, c := range s.chunks {
		if c.DocumentID == id {
			delete(s.chunks, chunkID)
		}
	}
	return nil
}

func (s *Memory) CreateChunks(ctx context.Context, chunks []domain.Chunk) error {
	for i := range chunks {
		if err := domain.ValidateChunk(&chunks[i]); err != nil {
			return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid chunk", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if _, ok := s.docs[c.DocumentID]; !ok {
			return domain.ErrDocumentNotFound
		}
	}
	for _, c := range chunks {
		s.chunks[c.ID] = c
	}
	return nil
}

func (s *Memory) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks := make([]domain.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool {
		a, b := chunks[i], chunks[j]
		if a.DocumentID != b.DocumentID {
			return s.docs[a.DocumentID].Seq < s.docs[b.DocumentID].Seq
		}
		return a.Index < b.Index
	})
	return chunks, nil
}

func (s *Memory) Counts(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs), len(s.chunks), nil
}

func copyDocument(doc *domain.Document) *domain.Document {
	out := *doc
	out.ChunkIDs = append([]string(nil), doc.ChunkIDs...)
	return &out
}
