// Package index builds and queries the term-weighted vector
// representation of the chunk corpus. Vectors are TF-IDF weighted over
// unigrams and bigrams with sublinear TF scaling, IDF computed treating
// each chunk as a document, and L2 normalization so cosine similarity
// reduces to a sparse dot product.
package index

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

const (
	// DefaultMaxFeatures caps the vocabulary size per rebuild.
	DefaultMaxFeatures = 10000
	// DefaultMaxDocFreqRatio drops terms present in more than this
	// fraction of chunks; such terms carry no discriminative weight.
	DefaultMaxDocFreqRatio = 0.95
)

// Source is one chunk handed to the vectorizer, carrying the provenance
// the snapshot needs for ranking tie-breaks and attribution.
type Source struct {
	ChunkID    string
	DocumentID string
	DocSeq     int64
	ChunkIndex int
	Content    string
	Length     int
}

// SourceFromChunk adapts a stored chunk plus its document's upload
// order into a vectorizer Source.
func SourceFromChunk(c domain.Chunk, docSeq int64) Source {
	return Source{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		DocSeq:     docSeq,
		ChunkIndex: c.Index,
		Content:    c.Content,
		Length:     c.Length,
	}
}

// Vectorizer fits TF-IDF snapshots over a chunk corpus. The vocabulary
// is derived fresh from the corpus on every call; nothing is retained
// between builds.
type Vectorizer struct {
	maxFeatures     int
	maxDocFreqRatio float64
	stopwords       map[string]struct{}
}

// Option configures a Vectorizer.
type Option func(*Vectorizer)

// WithMaxFeatures caps the vocabulary size.
func WithMaxFeatures(n int) Option {
	return func(v *Vectorizer) {
		if n > 0 {
			v.maxFeatures = n
		}
	}
}

// WithMaxDocFreqRatio sets the document-frequency cutoff ratio.
func WithMaxDocFreqRatio(r float64) Option {
	return func(v *Vectorizer) {
		if r > 0 && r <= 1 {
			v.maxDocFreqRatio = r
		}
	}
}

// NewVectorizer creates a Vectorizer with the given options.
func NewVectorizer(opts ...Option) *Vectorizer {
	v := &Vectorizer{
		maxFeatures:     DefaultMaxFeatures,
		maxDocFreqRatio: DefaultMaxDocFreqRatio,
		stopwords:       defaultStopwords(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Build fits a snapshot against the full corpus in sources. Chunks
// whose content is not valid UTF-8 cannot be tokenized; they are
// excluded from the snapshot and returned as skipped chunk ids so the
// caller can flag their documents — they still count toward the corpus
// fingerprint, which identifies the document store's contents. An empty
// corpus yields an empty, queryable snapshot.
func (v *Vectorizer) Build(sources []Source) (*Snapshot, []string) {
	snap := &Snapshot{
		Version:     SnapshotVersion,
		Fingerprint: fingerprintSources(sources),
		stopwords:   v.stopwords,
		cols:        map[string]int{},
	}

	var skipped []string
	valid := make([]Source, 0, len(sources))
	tokenized := make([][]string, 0, len(sources))
	for _, src := range sources {
		if !utf8.ValidString(src.Content) {
			skipped = append(skipped, src.ChunkID)
			continue
		}
		valid = append(valid, src)
		tokenized = append(tokenized, tokenize(src.Content, v.stopwords))
	}
	if len(valid) == 0 {
		return snap, skipped
	}

	// Document frequency, treating each chunk as a document.
	df := make(map[string]int)
	for _, tokens := range tokenized {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	n := len(valid)
	cutoff := int(v.maxDocFreqRatio * float64(n))
	if cutoff < 1 {
		cutoff = 1
	}
	terms := make([]string, 0, len(df))
	for term, freq := range df {
		if freq > cutoff {
			continue
		}
		terms = append(terms, term)
	}
	sort.Strings(terms)
	terms = v.truncateVocabulary(terms, df)

	snap.Terms = terms
	snap.IDF = make([]float64, len(terms))
	cols := make(map[string]int, len(terms))
	for i, term := range terms {
		cols[term] = i
		// Smoothed IDF, chunk-level corpus.
		snap.IDF[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
	snap.cols = cols

	snap.Entries = make([]Entry, len(valid))
	for i, src := range valid {
		tf := make(map[int]int)
		for _, tok := range tokenized[i] {
			if col, ok := cols[tok]; ok {
				tf[col]++
			}
		}
		snap.Entries[i] = Entry{
			ChunkID:    src.ChunkID,
			DocumentID: src.DocumentID,
			DocSeq:     src.DocSeq,
			ChunkIndex: src.ChunkIndex,
			Content:    src.Content,
			Vector:     normalizedVector(tf, snap.IDF),
		}
	}

	return snap, skipped
}

// truncateVocabulary keeps the maxFeatures most frequent terms,
// breaking frequency ties alphabetically so the result is stable.
func (v *Vectorizer) truncateVocabulary(terms []string, df map[string]int) []string {
	if len(terms) <= v.maxFeatures {
		return terms
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	terms = terms[:v.maxFeatures]
	sort.Strings(terms)
	return terms
}

// fingerprintSources mirrors Fingerprint for vectorizer inputs.
func fingerprintSources(sources []Source) string {
	chunks := make([]domain.Chunk, len(sources))
	for i, s := range sources {
		chunks[i] = domain.Chunk{ID: s.ChunkID, Length: s.Length}
	}
	return Fingerprint(chunks)
}
