package corpus

import (
	"encoding/json"
	"fmt"
	"os"

	"aligned-dataset/internal/types"
)

// SentencePool is the ordered reference sentence pool.
type SentencePool struct {
	Sentences []types.Sentence
	// MaxTokens is the largest token count over every ingested sentence.
	MaxTokens int
	// LengthMismatches counts entries whose declared wiki_sentences_length
	// disagrees with the actual token count.
	LengthMismatches int
}

type sentencesDoc struct {
	Sentences *[][]string      `json:"wiki_sentences"`
	Elements  *[]types.Element `json:"wiki_elements"`
	Lengths   *[]int           `json:"wiki_sentences_length"`
}

// LoadSentences reads the sentence document. The three arrays must be
// present and parallel; sentence order is kept exactly as stored.
func LoadSentences(path, label string) (*SentencePool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	defer f.Close()

	r, err := NewReader(f, label)
	if err != nil {
		return nil, err
	}

	var doc sentencesDoc
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", types.ErrMalformedInput, path, err)
	}
	switch {
	case doc.Sentences == nil:
		return nil, fmt.Errorf("%w: %s: missing field wiki_sentences", types.ErrMalformedInput, path)
	case doc.Elements == nil:
		return nil, fmt.Errorf("%w: %s: missing field wiki_elements", types.ErrMalformedInput, path)
	case doc.Lengths == nil:
		return nil, fmt.Errorf("%w: %s: missing field wiki_sentences_length", types.ErrMalformedInput, path)
	}

	sents, elems, lens := *doc.Sentences, *doc.Elements, *doc.Lengths
	if len(elems) != len(sents) || len(lens) != len(sents) {
		return nil, fmt.Errorf("%w: %s: wiki_sentences=%d wiki_elements=%d wiki_sentences_length=%d must be parallel",
			types.ErrMalformedInput, path, len(sents), len(elems), len(lens))
	}

	pool := &SentencePool{Sentences: make([]types.Sentence, len(sents))}
	for i, toks := range sents {
		pool.Sentences[i] = types.Sentence{Element: elems[i], Tokens: types.Tokens(toks)}
		if len(toks) > pool.MaxTokens {
			pool.MaxTokens = len(toks)
		}
		if lens[i] != len(toks) {
			pool.LengthMismatches++
		}
	}
	return pool, nil
}
