package domain

// RetrievalResult is a single ranked, source-attributed hit for a query.
// Results are ephemeral and never persisted.
type RetrievalResult struct {
	ChunkID    string
	DocumentID string
	Filename   string
	ChunkIndex int
	Content    string
	Similarity float64 // raw cosine similarity
	Rank       int     // 1-based
}
