// Package chunker splits raw document text into bounded, overlap-free
// retrieval units. Splitting is a pure function of the text and the
// configured length bounds, so identical input always yields an
// identical chunk sequence.
package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mindgrove-ai/studykit/internal/domain"
)

const (
	// DefaultMinChars is the default minimum chunk length in runes.
	DefaultMinChars = 200
	// DefaultMaxChars is the default maximum chunk length in runes.
	DefaultMaxChars = 1000

	paragraphSep = "\n\n"
)

var blankLine = regexp.MustCompile(`\n[ \t\r]*\n`)

// Chunker packs paragraphs into chunks bounded by [min, max] runes.
// Every produced chunk is at most max runes long, and at least min runes
// long except possibly the final chunk of a document.
type Chunker struct {
	min int
	max int
}

// New creates a Chunker with the given rune bounds. Non-positive or
// inverted bounds fall back to the defaults.
func New(min, max int) *Chunker {
	if min <= 0 {
		min = DefaultMinChars
	}
	if max <= 0 {
		max = DefaultMaxChars
	}
	if min >= max {
		min = DefaultMinChars
		max = DefaultMaxChars
	}
	return &Chunker{min: min, max: max}
}

// Split chunks text into an ordered sequence. Empty or whitespace-only
// input yields zero chunks, not an error; the caller decides what that
// means for the owning document. Chunk ID and DocumentID are left for
// the caller to assign.
func (c *Chunker) Split(text string) []domain.Chunk {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var blocks []string
	for _, p := range blankLine.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		// A single paragraph over the maximum is hard-split at the
		// max-length boundary.
		blocks = append(blocks, hardSplit(p, c.max)...)
	}
	if len(blocks) == 0 {
		return nil
	}

	packed := c.pack(blocks)
	merged := c.mergeShort(packed)

	chunks := make([]domain.Chunk, len(merged))
	for i, content := range merged {
		chunks[i] = domain.Chunk{
			Index:   i,
			Content: content,
			Length:  utf8.RuneCountInString(content),
		}
	}
	return chunks
}

// pack greedily joins consecutive blocks until adding the next block
// would exceed the maximum length.
func (c *Chunker) pack(blocks []string) []string {
	var out []string
	var cur strings.Builder
	curLen := 0

	for _, b := range blocks {
		bLen := utf8.RuneCountInString(b)
		if curLen > 0 && curLen+len(paragraphSep)+bLen > c.max {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
		if curLen > 0 {
			cur.WriteString(paragraphSep)
			curLen += len(paragraphSep)
		}
		cur.WriteString(b)
		curLen += bLen
	}
	if curLen > 0 {
		out = append(out, cur.String())
	}
	return out
}

// mergeShort folds chunks shorter than the minimum forward into the next
// chunk. A merge that overflows the maximum is hard-split again, so the
// max bound holds for every chunk; only the trailing chunk may stay
// under the minimum.
func (c *Chunker) mergeShort(chunks []string) []string {
	var out []string
	pending := ""

	for _, chunk := range chunks {
		if pending != "" {
			chunk = pending + paragraphSep + chunk
			pending = ""
		}
		if utf8.RuneCountInString(chunk) < c.min {
			pending = chunk
			continue
		}
		pieces := hardSplit(chunk, c.max)
		last := pieces[len(pieces)-1]
		if utf8.RuneCountInString(last) < c.min {
			out = append(out, pieces[:len(pieces)-1]...)
			pending = last
			continue
		}
		out = append(out, pieces...)
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

// hardSplit cuts s into pieces of at most max runes.
func hardSplit(s string, max int) []string {
	runes := []rune(s)
	if len(runes) <= max {
		return []string{s}
	}
	var pieces []string
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
