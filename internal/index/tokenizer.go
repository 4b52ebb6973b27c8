package index

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’][\p{L}\p{N}]+)*`)

// tokenize lowercases text, extracts word tokens, drops stop-words and
// returns the surviving unigrams followed by their bigrams. Bigrams are
// formed over the stop-word-filtered sequence, joined with a single
// space.
func tokenize(text string, stopwords map[string]struct{}) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(raw) == 0 {
		return nil
	}

	unigrams := make([]string, 0, len(raw))
	for _, tok := range raw {
		if _, isStop := stopwords[tok]; isStop {
			continue
		}
		unigrams = append(unigrams, tok)
	}
	if len(unigrams) == 0 {
		return nil
	}

	tokens := make([]string, 0, 2*len(unigrams))
	tokens = append(tokens, unigrams...)
	for i := 0; i+1 < len(unigrams); i++ {
		tokens = append(tokens, unigrams[i]+" "+unigrams[i+1])
	}
	return tokens
}
