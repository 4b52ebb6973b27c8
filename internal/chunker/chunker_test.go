package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	c := New(20, 100)

	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  \n\n   "))
}

func TestSplit_SingleParagraph(t *testing.T) {
	c := New(5, 100)

	chunks := c.Split("Photosynthesis converts light energy into chemical energy.")

	require.Len(t, chunks, 1)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "Photosynthesis converts light energy into chemical energy.", chunks[0].Content)
	assert.Equal(t, utf8.RuneCountInString(chunks[0].Content), chunks[0].Length)
}

func TestSplit_PacksParagraphsUpToMax(t *testing.T) {
	c := New(5, 60)

	// Two paragraphs fit together, the third forces a new chunk.
	text := "First paragraph here.\n\nSecond paragraph.\n\nThird paragraph overflows the first chunk."
	chunks := c.Split(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "First paragraph here.\n\nSecond paragraph.", chunks[0].Content)
	assert.Equal(t, "Third paragraph overflows the first chunk.", chunks[1].Content)
}

func TestSplit_HardSplitsOversizedParagraph(t *testing.T) {
	c := New(5, 50)

	long := strings.Repeat("x", 120)
	chunks := c.Split(long)

	require.Len(t, chunks, 3)
	assert.Equal(t, 50, chunks[0].Length)
	assert.Equal(t, 50, chunks[1].Length)
	assert.Equal(t, 20, chunks[2].Length)
}

func TestSplit_MergesShortChunksForward(t *testing.T) {
	c := New(30, 100)

	// The tiny opening paragraph cannot stand alone; it is merged into
	// the following chunk.
	text := "Intro.\n\n" + strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 90)
	chunks := c.Split(text)

	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(chunks[0].Content, "Intro."))
	for i, ch := range chunks {
		assert.LessOrEqual(t, ch.Length, 100, "chunk %d exceeds max", i)
		if i < len(chunks)-1 {
			assert.GreaterOrEqual(t, ch.Length, 30, "non-final chunk %d under min", i)
		}
	}
}

func TestSplit_TrailingChunkMayBeShort(t *testing.T) {
	c := New(30, 100)

	text := strings.Repeat("a", 90) + "\n\n" + "short tail"
	chunks := c.Split(text)

	require.Len(t, chunks, 2)
	assert.Equal(t, "short tail", chunks[1].Content)
	assert.Less(t, chunks[1].Length, 30)
}

func TestSplit_BoundsHoldForArbitraryInput(t *testing.T) {
	c := New(25, 80)

	texts := []string{
		"one\n\ntwo\n\nthree\n\nfour",
		strings.Repeat("word ", 200),
		strings.Repeat("p1 content here\n\n", 30),
		"a\n\n" + strings.Repeat("z", 300) + "\n\nb",
		"ünïcödé höwdy " + strings.Repeat("ß", 150),
	}

	for _, text := range texts {
		chunks := c.Split(text)
		for i, ch := range chunks {
			assert.LessOrEqual(t, ch.Length, 80)
			if i < len(chunks)-1 {
				assert.GreaterOrEqual(t, ch.Length, 25)
			}
			assert.Equal(t, i, ch.Index)
			assert.Equal(t, utf8.RuneCountInString(ch.Content), ch.Length)
		}
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(20, 90)
	text := "Mitochondria produce ATP through respiration.\n\n" +
		strings.Repeat("Cells divide. ", 25) + "\n\nShort."

	first := c.Split(text)
	second := c.Split(text)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestSplit_NormalizesWindowsLineEndings(t *testing.T) {
	c := New(5, 100)

	chunks := c.Split("para one\r\n\r\npara two")

	require.Len(t, chunks, 1)
	assert.Equal(t, "para one\n\npara two", chunks[0].Content)
}

func TestNew_InvalidBoundsFallBackToDefaults(t *testing.T) {
	c := New(500, 100)

	assert.Equal(t, DefaultMinChars, c.min)
	assert.Equal(t, DefaultMaxChars, c.max)
}
