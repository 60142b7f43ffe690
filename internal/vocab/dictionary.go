package vocab

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"aligned-dataset/internal/types"
)

type dictionary struct {
	Word2ID map[string]int    `json:"word2id"`
	ID2Word map[string]string `json:"id2word"`
}

// MarshalJSON renders the {"word2id", "id2word"} dictionary document.
// Keys are sorted by encoding/json, so output is byte-stable.
func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	d := dictionary{
		Word2ID: make(map[string]int, len(v.id2word)),
		ID2Word: make(map[string]string, len(v.id2word)),
	}
	for i, w := range v.id2word {
		d.Word2ID[w] = i + 1
		d.ID2Word[idKey(i+1)] = w
	}
	return json.Marshal(d)
}

// WriteDictionary writes the dictionary document to w.
func WriteDictionary(w io.Writer, v *Vocabulary) error {
	b, err := v.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// ReadDictionary loads a dictionary document back into a Vocabulary. The
// two maps must describe the same dense 1-based bijection.
func ReadDictionary(r io.Reader) (*Vocabulary, error) {
	var d dictionary
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: dictionary: %v", types.ErrMalformedInput, err)
	}
	if d.Word2ID == nil || d.ID2Word == nil {
		return nil, fmt.Errorf("%w: dictionary: missing word2id or id2word", types.ErrMalformedInput)
	}
	if len(d.Word2ID) != len(d.ID2Word) {
		return nil, fmt.Errorf("%w: dictionary: word2id has %d entries, id2word %d",
			types.ErrMalformedInput, len(d.Word2ID), len(d.ID2Word))
	}

	n := len(d.ID2Word)
	v := &Vocabulary{word2id: make(map[string]int, n), id2word: make([]string, n)}
	for key, w := range d.ID2Word {
		id, err := strconv.Atoi(key)
		if err != nil || id < 1 || id > n {
			return nil, fmt.Errorf("%w: dictionary: id %q outside 1..%d", types.ErrMalformedInput, key, n)
		}
		if d.Word2ID[w] != id {
			return nil, fmt.Errorf("%w: dictionary: %q maps to %d but id2word[%d]=%q",
				types.ErrMalformedInput, w, d.Word2ID[w], id, w)
		}
		v.id2word[id-1] = w
		v.word2id[w] = id
	}
	if n > 0 && v.id2word[n-1] == PadToken {
		v.padID = n
	}
	return v, nil
}
