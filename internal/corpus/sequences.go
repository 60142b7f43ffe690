package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"aligned-dataset/internal/types"
)

// LoadSequences reads the JSON object mapping each element to its raw
// sequences. Elements come back in document order and each element's
// sequences in array order, so a run is reproducible for a given seed.
func LoadSequences(path, label string) ([]types.Sequence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	defer f.Close()

	r, err := NewReader(f, label)
	if err != nil {
		return nil, err
	}
	seqs, err := decodeSequences(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrMalformedInput, path, err)
	}
	return seqs, nil
}

func decodeSequences(r io.Reader) ([]types.Sequence, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected a JSON object of element -> sequences, got %v", tok)
	}

	var out []types.Sequence
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var texts []string
		if err := dec.Decode(&texts); err != nil {
			return nil, fmt.Errorf("element %q: %w", key, err)
		}
		for _, text := range texts {
			out = append(out, types.Sequence{
				Element: types.Element(key),
				Text:    text,
				Length:  len(Tokenize(text)),
			})
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}
