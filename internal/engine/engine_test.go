package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindgrove-ai/studykit/internal/chunker"
	"github.com/mindgrove-ai/studykit/internal/domain"
	"github.com/mindgrove-ai/studykit/internal/index"
	"github.com/mindgrove-ai/studykit/internal/storage"
	"github.com/mindgrove-ai/studykit/internal/store"
)

// memArtifacts is an in-memory artifact store recording every save.
type memArtifacts struct {
	mu       sync.Mutex
	objects  map[string][]byte
	saved    [][]byte
	failSave bool
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{objects: make(map[string][]byte)}
}

func (m *memArtifacts) Save(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errors.New("artifact storage unavailable")
	}
	cp := append([]byte(nil), data...)
	m.objects[key] = cp
	m.saved = append(m.saved, cp)
	return nil
}

func (m *memArtifacts) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrArtifactNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *memArtifacts) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// flakyStore wraps a real store and fails chunk listing on demand,
// which aborts any rebuild that depends on it.
type flakyStore struct {
	store.DocumentStore
	failListChunks bool
}

func (s *flakyStore) ListChunks(ctx context.Context) ([]domain.Chunk, error) {
	if s.failListChunks {
		return nil, errors.New("store unavailable")
	}
	return s.DocumentStore.ListChunks(ctx)
}

func newTestEngine() (*Engine, *store.Memory, *memArtifacts) {
	docs := store.NewMemory()
	artifacts := newMemArtifacts()
	e := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
	return e, docs, artifacts
}

const (
	photosynthesisText = "Photosynthesis converts light energy into chemical energy."
	mitochondriaText   = "Mitochondria produce ATP through respiration."
)

func TestEngineAddDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("add produces a ready document with chunks", func(t *testing.T) {
		e, docs, _ := newTestEngine()

		doc, err := e.AddDocument(ctx, "bio.txt", photosynthesisText)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusReady, doc.Status)
		assert.Equal(t, "bio.txt", doc.Filename)
		assert.Empty(t, doc.Warning)
		require.Len(t, doc.ChunkIDs, 1)

		chunks, err := docs.ListChunks(ctx)
		require.NoError(t, err)
		require.Len(t, chunks, 1)
		assert.Equal(t, doc.ChunkIDs[0], chunks[0].ID)
		assert.Equal(t, photosynthesisText, chunks[0].Content)
	})

	t.Run("empty text is an input error with no state change", func(t *testing.T) {
		e, docs, _ := newTestEngine()

		_, err := e.AddDocument(ctx, "empty.txt", "   \n\t  ")
		assert.ErrorIs(t, err, domain.ErrNoContent)

		listed, err := e.ListDocuments(ctx)
		require.NoError(t, err)
		assert.Empty(t, listed)

		nDocs, nChunks, err := docs.Counts(ctx)
		require.NoError(t, err)
		assert.Zero(t, nDocs)
		assert.Zero(t, nChunks)
	})

	t.Run("unencodable text is kept in the store but flagged", func(t *testing.T) {
		e, docs, _ := newTestEngine()

		doc, err := e.AddDocument(ctx, "binary.txt", "corrupted \xff\xfe payload")
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusReady, doc.Status)
		assert.Equal(t, "1 of 1 chunks excluded from the index (unencodable text)", doc.Warning)

		// The chunk survives in the store even though the index skipped it.
		chunks, err := docs.ListChunks(ctx)
		require.NoError(t, err)
		assert.Len(t, chunks, 1)

		st, err := e.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, st.Chunks)
		assert.Equal(t, 0, st.IndexedChunks)
	})

	t.Run("rebuild failure marks the document failed", func(t *testing.T) {
		docs := &flakyStore{DocumentStore: store.NewMemory()}
		e := New(docs, newMemArtifacts(), WithChunker(chunker.New(10, 200)))

		docs.failListChunks = true
		_, err := e.AddDocument(ctx, "bio.txt", photosynthesisText)
		require.Error(t, err)

		docs.failListChunks = false
		listed, err := e.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 1)
		assert.Equal(t, domain.DocumentStatusFailed, listed[0].Status)
		assert.NotEmpty(t, listed[0].Warning)
	})

	t.Run("documents list in upload order", func(t *testing.T) {
		e, _, _ := newTestEngine()

		first, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		second, err := e.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)

		listed, err := e.ListDocuments(ctx)
		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, first.ID, listed[0].ID)
		assert.Equal(t, second.ID, listed[1].ID)
	})
}

func TestEngineRemoveDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		e, _, _ := newTestEngine()
		err := e.RemoveDocument(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("remove cascades and drops the chunks from the index", func(t *testing.T) {
		e, _, _ := newTestEngine()

		docA, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)

		require.NoError(t, e.RemoveDocument(ctx, docA.ID))

		results, err := e.Retrieve(ctx, "light energy", 5, 0.0)
		require.NoError(t, err)
		for _, r := range results {
			assert.NotEqual(t, docA.ID, r.DocumentID)
		}
	})

	t.Run("index corpus tracks the store through adds and removes", func(t *testing.T) {
		e, docs, _ := newTestEngine()

		a, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "c.txt", "Ribosomes assemble proteins from amino acids.")
		require.NoError(t, err)

		require.NoError(t, e.RemoveDocument(ctx, a.ID))

		chunks, err := docs.ListChunks(ctx)
		require.NoError(t, err)

		st, err := e.Status(ctx)
		require.NoError(t, err)
		assert.Equal(t, index.Fingerprint(chunks), st.Fingerprint)
		assert.Equal(t, len(chunks), st.IndexedChunks)
	})
}

func TestEngineRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty query", func(t *testing.T) {
		e, _, _ := newTestEngine()
		_, err := e.Retrieve(ctx, "  ", 3, 0.1)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	})

	t.Run("empty corpus returns no results, not an error", func(t *testing.T) {
		e, _, _ := newTestEngine()
		results, err := e.Retrieve(ctx, "anything at all", 3, 0.1)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("ranks the on-topic document first", func(t *testing.T) {
		e, _, _ := newTestEngine()

		docA, err := e.AddDocument(ctx, "photosynthesis.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "mitochondria.txt", mitochondriaText)
		require.NoError(t, err)

		results, err := e.Retrieve(ctx, "What converts light into energy?", 1, DefaultMinSimilarity)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, docA.ID, results[0].DocumentID)
		assert.Equal(t, "photosynthesis.txt", results[0].Filename)
		assert.Equal(t, 1, results[0].Rank)
		assert.Greater(t, results[0].Similarity, DefaultMinSimilarity)
	})

	t.Run("respects topK and minSimilarity and sorts descending", func(t *testing.T) {
		e, _, _ := newTestEngine()

		_, err := e.AddDocument(ctx, "a.txt", "Light energy powers photosynthesis in leaves.")
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "b.txt", "Chlorophyll absorbs light in the leaf.")
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "c.txt", "Mitochondria produce ATP through respiration.")
		require.NoError(t, err)

		results, err := e.Retrieve(ctx, "light energy photosynthesis", 2, 0.05)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(results), 2)
		for i, r := range results {
			assert.GreaterOrEqual(t, r.Similarity, 0.05)
			assert.Equal(t, i+1, r.Rank)
			if i > 0 {
				assert.GreaterOrEqual(t, results[i-1].Similarity, r.Similarity)
			}
		}
	})

	t.Run("identical queries on an unchanged index reproduce results", func(t *testing.T) {
		e, _, _ := newTestEngine()

		_, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)

		first, err := e.Retrieve(ctx, "light energy", 3, 0.0)
		require.NoError(t, err)
		second, err := e.Retrieve(ctx, "light energy", 3, 0.0)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("dangling document reference self-heals with a rebuild", func(t *testing.T) {
		e, docs, _ := newTestEngine()

		docA, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)

		// Remove the document behind the engine's back so the published
		// snapshot still references it.
		require.NoError(t, docs.DeleteDocument(ctx, docA.ID))

		_, err = e.Retrieve(ctx, "light energy", 3, 0.0)
		assert.ErrorIs(t, err, domain.ErrIndexInconsistent)

		// The forced rebuild resynchronized index and store.
		results, err := e.Retrieve(ctx, "light energy", 3, 0.0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestEngineSampleContext(t *testing.T) {
	ctx := context.Background()

	t.Run("empty corpus", func(t *testing.T) {
		e, _, _ := newTestEngine()
		results, err := e.SampleContext(ctx, 10)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("spreads the sample across documents", func(t *testing.T) {
		docs := store.NewMemory()
		e := New(docs, newMemArtifacts(), WithChunker(chunker.New(10, 40)))

		docA, err := e.AddDocument(ctx, "a.txt", "Alpha block one is here okay.\n\nAlpha block two is here okay.")
		require.NoError(t, err)
		require.Len(t, docA.ChunkIDs, 2)
		docB, err := e.AddDocument(ctx, "b.txt", "Bravo block one is here okay.\n\nBravo block two is here okay.")
		require.NoError(t, err)

		results, err := e.SampleContext(ctx, 2)
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, docA.ID, results[0].DocumentID)
		assert.Equal(t, 0, results[0].ChunkIndex)
		assert.Equal(t, docB.ID, results[1].DocumentID)
		assert.Equal(t, 0, results[1].ChunkIndex)
	})

	t.Run("returns chunks in corpus order up to the cap", func(t *testing.T) {
		e, _, _ := newTestEngine()

		docA, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = e.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)

		results, err := e.SampleContext(ctx, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, docA.ID, results[0].DocumentID)
		assert.Equal(t, "a.txt", results[0].Filename)
	})
}

func TestEngineRebuildIdempotence(t *testing.T) {
	ctx := context.Background()
	e, _, artifacts := newTestEngine()

	_, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
	require.NoError(t, err)
	_, err = e.AddDocument(ctx, "b.txt", mitochondriaText)
	require.NoError(t, err)

	require.NoError(t, e.Rebuild(ctx))
	require.NoError(t, e.Rebuild(ctx))

	n := len(artifacts.saved)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, artifacts.saved[n-2], artifacts.saved[n-1])
}

func TestEnginePersistSnapshotRetry(t *testing.T) {
	ctx := context.Background()
	e, _, artifacts := newTestEngine()

	_, err := e.AddDocument(ctx, "a.txt", photosynthesisText)
	require.NoError(t, err)
	baseline := len(artifacts.saved)

	artifacts.mu.Lock()
	artifacts.failSave = true
	artifacts.mu.Unlock()

	// Rebuild still publishes an index even when the save fails.
	require.NoError(t, e.Rebuild(ctx))
	st, err := e.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.IndexReady)
	assert.Equal(t, baseline, len(artifacts.saved))

	// The retry while storage is down surfaces the error.
	require.Error(t, e.PersistSnapshot(ctx))

	artifacts.mu.Lock()
	artifacts.failSave = false
	artifacts.mu.Unlock()

	require.NoError(t, e.PersistSnapshot(ctx))
	assert.Equal(t, baseline+1, len(artifacts.saved))

	// With the artifact current again the retry is a no-op.
	require.NoError(t, e.PersistSnapshot(ctx))
	assert.Equal(t, baseline+1, len(artifacts.saved))
}

func TestEngineStart(t *testing.T) {
	ctx := context.Background()

	t.Run("cold start with empty store builds an empty index", func(t *testing.T) {
		e, _, _ := newTestEngine()
		require.NoError(t, e.Start(ctx))

		st, err := e.Status(ctx)
		require.NoError(t, err)
		assert.True(t, st.IndexReady)
		assert.Zero(t, st.IndexedChunks)
		assert.Equal(t, int64(1), st.Rebuilds)
	})

	t.Run("matching persisted snapshot loads without rebuilding", func(t *testing.T) {
		docs := store.NewMemory()
		artifacts := newMemArtifacts()

		first := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		_, err := first.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = first.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)

		second := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		require.NoError(t, second.Start(ctx))
		assert.Equal(t, int64(0), second.Rebuilds())

		results, err := second.Retrieve(ctx, "What converts light into energy?", 1, DefaultMinSimilarity)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a.txt", results[0].Filename)
	})

	t.Run("restored snapshot serves concurrent queries", func(t *testing.T) {
		docs := store.NewMemory()
		artifacts := newMemArtifacts()

		first := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		_, err := first.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)
		_, err = first.AddDocument(ctx, "b.txt", mitochondriaText)
		require.NoError(t, err)

		second := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		require.NoError(t, second.Start(ctx))

		// Readers share the restored snapshot under the read lock; the
		// first queries after a restore must be as safe as any later one.
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 25; j++ {
					results, err := second.Retrieve(ctx, "What converts light into energy?", 1, DefaultMinSimilarity)
					assert.NoError(t, err)
					if assert.Len(t, results, 1) {
						assert.Equal(t, "a.txt", results[0].Filename)
					}
				}
			}()
		}
		wg.Wait()
	})

	t.Run("stale persisted snapshot forces a rebuild", func(t *testing.T) {
		docs := store.NewMemory()
		artifacts := newMemArtifacts()

		first := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		docA, err := first.AddDocument(ctx, "a.txt", photosynthesisText)
		require.NoError(t, err)

		// Mutate the store without going through an engine.
		require.NoError(t, docs.DeleteDocument(ctx, docA.ID))

		second := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		require.NoError(t, second.Start(ctx))
		assert.Equal(t, int64(1), second.Rebuilds())

		st, err := second.Status(ctx)
		require.NoError(t, err)
		assert.Zero(t, st.IndexedChunks)
	})

	t.Run("corrupt persisted snapshot forces a rebuild", func(t *testing.T) {
		docs := store.NewMemory()
		artifacts := newMemArtifacts()
		require.NoError(t, artifacts.Save(ctx, "index/snapshot.json", []byte("not json")))

		e := New(docs, artifacts, WithChunker(chunker.New(10, 200)))
		require.NoError(t, e.Start(ctx))
		assert.Equal(t, int64(1), e.Rebuilds())
	})
}
