package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	stop := defaultStopwords()

	t.Run("lowercases and extracts unigrams and bigrams", func(t *testing.T) {
		tokens := tokenize("Mitochondria Produce ATP", stop)
		assert.Equal(t, []string{
			"mitochondria", "produce", "atp",
			"mitochondria produce", "produce atp",
		}, tokens)
	})

	t.Run("removes stop-words before forming bigrams", func(t *testing.T) {
		tokens := tokenize("light into energy", stop)
		assert.Equal(t, []string{"light", "energy", "light energy"}, tokens)
	})

	t.Run("keeps apostrophe words intact", func(t *testing.T) {
		tokens := tokenize("cell's nucleus", stop)
		assert.Contains(t, tokens, "cell's")
		assert.Contains(t, tokens, "nucleus")
	})

	t.Run("empty and punctuation-only input yields nothing", func(t *testing.T) {
		assert.Nil(t, tokenize("", stop))
		assert.Nil(t, tokenize("... !!! ---", stop))
	})

	t.Run("all-stop-word input yields nothing", func(t *testing.T) {
		assert.Nil(t, tokenize("the and of", stop))
	})

	t.Run("single surviving token has no bigrams", func(t *testing.T) {
		tokens := tokenize("photosynthesis", stop)
		assert.Equal(t, []string{"photosynthesis"}, tokens)
	})
}
