package index

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// SnapshotVersion is the serialization format version of a persisted
// snapshot. A persisted artifact with any other version is treated as
// corrupt and triggers a full rebuild.
const SnapshotVersion = 1

// Component is one non-zero coordinate of a sparse term vector.
type Component struct {
	Col    int     `json:"c"`
	Weight float64 `json:"w"`
}

// Sparse is an L2-normalized sparse vector, sorted by column.
type Sparse []Component

// Entry is one indexed chunk: its provenance plus its weight vector.
type Entry struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	DocSeq     int64  `json:"doc_seq"`
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
	Vector     Sparse `json:"vector"`
}

// Snapshot is an immutable, internally consistent instance of the
// vector index: the vocabulary, per-term IDF values and per-chunk
// vectors fitted against one exact chunk corpus, identified by its
// fingerprint. A Snapshot is never mutated after construction; rebuilds
// produce a fresh one which is published wholesale.
type Snapshot struct {
	Version     int       `json:"version"`
	Fingerprint string    `json:"fingerprint"`
	Terms       []string  `json:"terms"`
	IDF         []float64 `json:"idf"`
	Entries     []Entry   `json:"entries"`

	stopwords map[string]struct{}
	cols      map[string]int
}

// Len returns the number of indexed chunks.
func (s *Snapshot) Len() int {
	return len(s.Entries)
}

// Empty reports whether the snapshot indexes no chunks.
func (s *Snapshot) Empty() bool {
	return len(s.Entries) == 0
}

// Score tokenizes the query with the corpus pipeline, projects it into
// the snapshot's vocabulary (out-of-vocabulary terms contribute zero
// weight), L2-normalizes it and returns the cosine similarity against
// every entry, aligned with Entries. An empty snapshot or a query with
// no known terms yields all-zero scores.
func (s *Snapshot) Score(query string) []float64 {
	scores := make([]float64, len(s.Entries))
	if len(s.Entries) == 0 {
		return scores
	}

	qv := s.vectorize(query)
	if len(qv) == 0 {
		return scores
	}

	for i, e := range s.Entries {
		scores[i] = dot(qv, e.Vector)
	}
	return scores
}

// vectorize builds the sublinear-TF*IDF vector for text against the
// snapshot vocabulary. It only reads snapshot state: a published
// snapshot is queried from many goroutines at once.
func (s *Snapshot) vectorize(text string) Sparse {
	tf := make(map[int]int)
	for _, tok := range tokenize(text, s.stopwords) {
		if col, ok := s.cols[tok]; ok {
			tf[col]++
		}
	}
	return normalizedVector(tf, s.IDF)
}

// Encode serializes the snapshot to a deterministic byte form: the same
// snapshot always encodes to identical bytes, so repeated rebuilds of an
// unchanged corpus persist byte-identical artifacts.
func (s *Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a persisted snapshot artifact. Any parse
// failure or version mismatch is reported; callers fall back to a full
// rebuild rather than a partial load.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("decode snapshot: unsupported version %d", s.Version)
	}
	if len(s.Terms) != len(s.IDF) {
		return nil, fmt.Errorf("decode snapshot: %d terms but %d idf values", len(s.Terms), len(s.IDF))
	}
	// Lookup maps are built before the snapshot is handed out; once
	// published it is read concurrently and must never mutate itself.
	s.stopwords = defaultStopwords()
	s.cols = make(map[string]int, len(s.Terms))
	for i, term := range s.Terms {
		s.cols[term] = i
	}
	return &s, nil
}

// normalizedVector turns raw term counts into a sorted, L2-normalized
// sparse vector using sublinear TF scaling.
func normalizedVector(tf map[int]int, idf []float64) Sparse {
	if len(tf) == 0 {
		return nil
	}
	vec := make(Sparse, 0, len(tf))
	norm := 0.0
	for col, count := range tf {
		w := (1 + math.Log(float64(count))) * idf[col]
		vec = append(vec, Component{Col: col, Weight: w})
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i].Weight /= norm
		}
	}
	sort.Slice(vec, func(i, j int) bool { return vec[i].Col < vec[j].Col })
	return vec
}

// dot computes the inner product of two column-sorted sparse vectors.
func dot(a, b Sparse) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Col == b[j].Col:
			sum += a[i].Weight * b[j].Weight
			i++
			j++
		case a[i].Col < b[j].Col:
			i++
		default:
			j++
		}
	}
	return sum
}
