package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

// Fingerprint derives a stable identity for a chunk corpus from the
// sorted chunk ids and their lengths. Two corpora with the same
// fingerprint contain exactly the same chunks, which is how a persisted
// snapshot is matched against the live document store.
func Fingerprint(chunks []domain.Chunk) string {
	entries := make([]string, len(chunks))
	for i, c := range chunks {
		entries[i] = fmt.Sprintf("%s:%d", c.ID, c.Length)
	}
	sort.Strings(entries)

	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
