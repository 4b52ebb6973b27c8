// Package engine owns the retrieval core: it coordinates the document
// store, the chunker and the vector index, and publishes immutable index
// snapshots for queries.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mindgrove-ai/studykit/internal/chunker"
	"github.com/mindgrove-ai/studykit/internal/domain"
	"github.com/mindgrove-ai/studykit/internal/index"
	"github.com/mindgrove-ai/studykit/internal/storage"
	"github.com/mindgrove-ai/studykit/internal/store"
	"github.com/mindgrove-ai/studykit/internal/telemetry"
)

// Retrieval defaults, matching the query path's tuning.
const (
	DefaultTopK          = 3
	DefaultMinSimilarity = 0.1
	DefaultSampleChunks  = 20
)

// snapshotKey is where the serialized index snapshot lives in artifact storage.
const snapshotKey = "index/snapshot.json"

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// Status reports engine counts for the health display.
type Status struct {
	Documents     int
	Chunks        int
	IndexedChunks int
	IndexReady    bool
	Fingerprint   string
	Rebuilds      int64
}

// Engine orchestrates document ingestion and similarity retrieval.
//
// A single RWMutex serializes mutations (add/remove/rebuild) against each
// other while queries share the read side. Rebuilds construct the new
// snapshot entirely off to the side and publish it with one pointer swap,
// so a reader always observes a complete snapshot that matches the store.
type Engine struct {
	store      store.DocumentStore
	artifacts  storage.Store
	vectorizer *index.Vectorizer
	chunker    *chunker.Chunker
	uuidGen    UUIDGenerator

	mu       sync.RWMutex
	snap     *index.Snapshot
	rebuilds atomic.Int64

	// persistPending is set when a snapshot save failed so a background
	// retry can catch up.
	persistPending atomic.Bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithChunker overrides the default chunk length bounds.
func WithChunker(c *chunker.Chunker) Option {
	return func(e *Engine) { e.chunker = c }
}

// WithVectorizer overrides the default vectorizer tuning.
func WithVectorizer(v *index.Vectorizer) Option {
	return func(e *Engine) { e.vectorizer = v }
}

// WithUUIDGenerator overrides ID generation (for testing).
func WithUUIDGenerator(g UUIDGenerator) Option {
	return func(e *Engine) { e.uuidGen = g }
}

// New creates an Engine over the given document store and snapshot
// artifact store.
func New(docs store.DocumentStore, artifacts storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:      docs,
		artifacts:  artifacts,
		vectorizer: index.NewVectorizer(),
		chunker:    chunker.New(chunker.DefaultMinChars, chunker.DefaultMaxChars),
		uuidGen:    &DefaultUUIDGenerator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start restores the persisted snapshot when its fingerprint matches the
// current store contents, and rebuilds otherwise. Corrupt or stale
// artifacts are never partially loaded.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	chunks, err := e.store.ListChunks(ctx)
	if err != nil {
		return fmt.Errorf("failed to list chunks on startup: %w", err)
	}
	fingerprint := index.Fingerprint(chunks)

	data, err := e.artifacts.Load(ctx, snapshotKey)
	switch {
	case err == nil:
		snap, decodeErr := index.DecodeSnapshot(data)
		if decodeErr != nil {
			log.Printf("engine: persisted snapshot is corrupt, rebuilding: %v", decodeErr)
		} else if snap.Fingerprint != fingerprint {
			log.Printf("engine: rebuilding: %v", domain.ErrSnapshotMismatch)
		} else {
			e.snap = snap
			log.Printf("engine: loaded persisted snapshot (%d chunks)", snap.Len())
			return nil
		}
	case errors.Is(err, storage.ErrArtifactNotFound):
		// First start, nothing persisted yet.
	default:
		log.Printf("engine: failed to load persisted snapshot, rebuilding: %v", err)
	}

	_, err = e.rebuildLocked(ctx)
	return err
}

// AddDocument chunks the text, persists the document and its chunks, and
// synchronously rebuilds the index. Empty or whitespace-only text is an
// input error and leaves the store untouched.
func (e *Engine) AddDocument(ctx context.Context, filename, text string) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.AddDocument", telemetry.SpanAttributes{
		Operation: "add_document",
	})
	defer span.End()

	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrNoContent
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	doc := domain.NewDocument(e.uuidGen.NewString(), filename, int64(len(text)), time.Now().UTC())

	chunks := e.chunker.Split(text)
	doc.ChunkIDs = make([]string, len(chunks))
	for i := range chunks {
		chunks[i].ID = e.uuidGen.NewString()
		chunks[i].DocumentID = doc.ID
		doc.ChunkIDs[i] = chunks[i].ID
	}

	if err := e.store.CreateDocument(ctx, doc); err != nil {
		span.SetError(err)
		return nil, err
	}
	if err := e.store.CreateChunks(ctx, chunks); err != nil {
		span.SetError(err)
		if statusErr := e.store.SetDocumentStatus(ctx, doc.ID, domain.DocumentStatusFailed, err.Error()); statusErr != nil {
			log.Printf("engine: failed to mark document %s failed: %v", doc.ID, statusErr)
		}
		return nil, err
	}

	skipped, err := e.rebuildLocked(ctx)
	if err != nil {
		span.SetError(err)
		if statusErr := e.store.SetDocumentStatus(ctx, doc.ID, domain.DocumentStatusFailed, err.Error()); statusErr != nil {
			log.Printf("engine: failed to mark document %s failed: %v", doc.ID, statusErr)
		}
		return nil, err
	}

	warning := vectorizationWarning(doc.ID, chunks, skipped)
	if err := e.store.SetDocumentStatus(ctx, doc.ID, domain.DocumentStatusReady, warning); err != nil {
		span.SetError(err)
		return nil, err
	}
	doc.Status = domain.DocumentStatusReady
	doc.Warning = warning
	return doc, nil
}

// RemoveDocument deletes a document and its chunks and synchronously
// rebuilds the index. Unknown IDs are an input error and change nothing.
func (e *Engine) RemoveDocument(ctx context.Context, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "Engine.RemoveDocument", telemetry.SpanAttributes{
		DocumentID: id,
		Operation:  "remove_document",
	})
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.store.DeleteDocument(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrDocumentNotFound) {
			span.SetError(err)
		}
		return err
	}

	_, err := e.rebuildLocked(ctx)
	if err != nil {
		span.SetError(err)
	}
	return err
}

// GetDocument returns one document's metadata.
func (e *Engine) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.GetDocument(ctx, id)
}

// ListDocuments returns all documents in upload order.
func (e *Engine) ListDocuments(ctx context.Context) ([]*domain.Document, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.ListDocuments(ctx)
}

// Retrieve ranks all indexed chunks against the query and returns at most
// topK results with similarity >= minSimilarity, each attributed to its
// source document. Results are deterministic for an unchanged index.
func (e *Engine) Retrieve(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.RetrievalResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "Engine.Retrieve", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	results, err := e.retrieveLocked(ctx, query, topK, minSimilarity)
	if errors.Is(err, domain.ErrIndexInconsistent) {
		// A chunk pointed at a vanished document. Self-heal with a full
		// rebuild and report the anomaly instead of exposing internals.
		span.SetError(err)
		telemetry.CaptureError(ctx, err)
		log.Printf("engine: index referenced a missing document, forcing rebuild")
		if rerr := e.Rebuild(ctx); rerr != nil {
			log.Printf("engine: recovery rebuild failed: %v", rerr)
		}
		return nil, domain.ErrIndexInconsistent
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	return results, nil
}

func (e *Engine) retrieveLocked(ctx context.Context, query string, topK int, minSimilarity float64) ([]domain.RetrievalResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snap := e.snap
	if snap == nil || snap.Empty() {
		return []domain.RetrievalResult{}, nil
	}

	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	docsByID := make(map[string]*domain.Document, len(docs))
	for _, doc := range docs {
		docsByID[doc.ID] = doc
	}

	scores := snap.Score(query)
	candidates := make([]int, 0, len(scores))
	for i, score := range scores {
		if score >= minSimilarity {
			candidates = append(candidates, i)
		}
	}

	// Descending by similarity; upload order then chunk order break ties
	// so an unchanged index always ranks identically.
	sort.Slice(candidates, func(a, b int) bool {
		ea, eb := snap.Entries[candidates[a]], snap.Entries[candidates[b]]
		sa, sb := scores[candidates[a]], scores[candidates[b]]
		if sa != sb {
			return sa > sb
		}
		if ea.DocSeq != eb.DocSeq {
			return ea.DocSeq < eb.DocSeq
		}
		return ea.ChunkIndex < eb.ChunkIndex
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]domain.RetrievalResult, 0, len(candidates))
	for rank, i := range candidates {
		entry := snap.Entries[i]
		doc, ok := docsByID[entry.DocumentID]
		if !ok {
			return nil, domain.ErrIndexInconsistent
		}
		results = append(results, domain.RetrievalResult{
			ChunkID:    entry.ChunkID,
			DocumentID: entry.DocumentID,
			Filename:   doc.Filename,
			ChunkIndex: entry.ChunkIndex,
			Content:    entry.Content,
			Similarity: scores[i],
			Rank:       rank + 1,
		})
	}
	return results, nil
}

// SampleContext returns up to maxChunks indexed chunks spread across all
// documents (leading chunks of each, in upload order), attributed to
// their documents. It backs study-material generation when no topic is
// given.
func (e *Engine) SampleContext(ctx context.Context, maxChunks int) ([]domain.RetrievalResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if maxChunks <= 0 {
		maxChunks = DefaultSampleChunks
	}

	snap := e.snap
	if snap == nil || snap.Empty() {
		return []domain.RetrievalResult{}, nil
	}

	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	docsByID := make(map[string]*domain.Document, len(docs))
	for _, doc := range docs {
		docsByID[doc.ID] = doc
	}

	perDoc := maxChunks / len(docs)
	if perDoc < 1 {
		perDoc = 1
	}

	taken := make(map[string]int, len(docs))
	results := make([]domain.RetrievalResult, 0, maxChunks)
	for _, entry := range snap.Entries {
		if len(results) >= maxChunks {
			break
		}
		if taken[entry.DocumentID] >= perDoc {
			continue
		}
		doc, ok := docsByID[entry.DocumentID]
		if !ok {
			return nil, domain.ErrIndexInconsistent
		}
		taken[entry.DocumentID]++
		results = append(results, domain.RetrievalResult{
			ChunkID:    entry.ChunkID,
			DocumentID: entry.DocumentID,
			Filename:   doc.Filename,
			ChunkIndex: entry.ChunkIndex,
			Content:    entry.Content,
			Rank:       len(results) + 1,
		})
	}
	return results, nil
}

// Status reports store counts and index freshness.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	docs, chunks, err := e.store.Counts(ctx)
	if err != nil {
		return Status{}, err
	}

	st := Status{
		Documents: docs,
		Chunks:    chunks,
		Rebuilds:  e.rebuilds.Load(),
	}
	if e.snap != nil {
		st.IndexReady = true
		st.IndexedChunks = e.snap.Len()
		st.Fingerprint = e.snap.Fingerprint
	}
	return st, nil
}

// Rebuild refits the index against the store's current full chunk set and
// persists the resulting snapshot. It is idempotent: with no intervening
// mutation, two rebuilds produce byte-identical artifacts.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.rebuildLocked(ctx)
	return err
}

// Rebuilds returns the number of index rebuilds since process start.
func (e *Engine) Rebuilds() int64 {
	return e.rebuilds.Load()
}

// PersistSnapshot retries a snapshot save that failed during a rebuild.
// It is a no-op when the persisted artifact is already current.
func (e *Engine) PersistSnapshot(ctx context.Context) error {
	if !e.persistPending.Load() {
		return nil
	}

	e.mu.RLock()
	snap := e.snap
	e.mu.RUnlock()
	if snap == nil {
		return nil
	}

	data, err := snap.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := e.artifacts.Save(ctx, snapshotKey, data); err != nil {
		return fmt.Errorf("failed to persist snapshot: %w", err)
	}
	e.persistPending.Store(false)
	log.Printf("engine: persisted snapshot after earlier failure")
	return nil
}

// rebuildLocked refits and publishes a new snapshot. Caller holds the
// write lock. Returns the IDs of chunks skipped during vectorization.
func (e *Engine) rebuildLocked(ctx context.Context) ([]string, error) {
	chunks, err := e.store.ListChunks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks for rebuild: %w", err)
	}
	docs, err := e.store.ListDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents for rebuild: %w", err)
	}
	seqByDoc := make(map[string]int64, len(docs))
	for _, doc := range docs {
		seqByDoc[doc.ID] = doc.Seq
	}

	sources := make([]index.Source, len(chunks))
	for i, c := range chunks {
		sources[i] = index.SourceFromChunk(c, seqByDoc[c.DocumentID])
	}

	snap, skipped := e.vectorizer.Build(sources)
	if len(skipped) > 0 {
		log.Printf("index: %d chunks excluded from vectorization (kept in store)", len(skipped))
	}

	data, err := snap.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	// Persistence is best effort: the published index must not be held
	// hostage by artifact storage, the next successful save catches up.
	if err := e.artifacts.Save(ctx, snapshotKey, data); err != nil {
		log.Printf("engine: failed to persist snapshot: %v", err)
		e.persistPending.Store(true)
	} else {
		e.persistPending.Store(false)
	}

	e.snap = snap
	e.rebuilds.Add(1)
	return skipped, nil
}

// vectorizationWarning summarizes skipped chunks belonging to one document.
func vectorizationWarning(docID string, chunks []domain.Chunk, skipped []string) string {
	if len(skipped) == 0 {
		return ""
	}
	skippedSet := make(map[string]struct{}, len(skipped))
	for _, id := range skipped {
		skippedSet[id] = struct{}{}
	}
	count := 0
	for _, c := range chunks {
		if c.DocumentID != docID {
			continue
		}
		if _, ok := skippedSet[c.ID]; ok {
			count++
		}
	}
	if count == 0 {
		return ""
	}
	return fmt.Sprintf("%d of %d chunks excluded from the index (unencodable text)", count, len(chunks))
}
