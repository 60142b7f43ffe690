// Package vocab builds the shared word <-> id mapping from the raw corpora.
//
// Ids are dense and 1-based. Id 1 is always the unknown-word sentinel; when
// padding is enabled the padding sentinel takes the last id. A word earns
// an id the first time it repeats often enough within one stream, and
// keeps it: later sightings, in any stream, never allocate again.
package vocab

import "strconv"

const (
	// UnknownToken is the spelling of the unknown-word sentinel.
	UnknownToken = "NaN"
	// PadToken is the spelling of the padding sentinel.
	PadToken = "<PAD>"
	// UnknownID is the id of UnknownToken.
	UnknownID = 1
)

// Policy is the frequency rule of one token stream.
type Policy struct {
	// Repeats is how many earlier sightings within the stream a word needs
	// before the current sighting allocates its id.
	Repeats int
}

var (
	// Trusted admits a word on its second sighting.
	Trusted = Policy{Repeats: 1}
	// Untrusted admits a word only once it has been seen more than twice.
	Untrusted = Policy{Repeats: 3}
)

// Builder accumulates ids. It is not safe for concurrent use.
type Builder struct {
	word2id map[string]int
	id2word []string // id2word[id-1]
}

// NewBuilder returns a builder with the unknown sentinel already reserved.
func NewBuilder() *Builder {
	b := &Builder{word2id: make(map[string]int)}
	b.insert(UnknownToken)
	return b
}

func (b *Builder) insert(word string) bool {
	if _, ok := b.word2id[word]; ok {
		return false
	}
	b.id2word = append(b.id2word, word)
	b.word2id[word] = len(b.id2word)
	return true
}

// Consume counts tokens of one stream in order and returns how many new
// ids were allocated. Counts start from zero for every call.
func (b *Builder) Consume(tokens []string, p Policy) int {
	counts := make(map[string]int)
	added := 0
	for _, tok := range tokens {
		seen := counts[tok]
		counts[tok] = seen + 1
		if seen < p.Repeats || isReserved(tok) {
			continue
		}
		if b.insert(tok) {
			added++
		}
	}
	return added
}

// Size is the number of ids allocated so far, sentinels included.
func (b *Builder) Size() int { return len(b.id2word) }

// Finish freezes the mapping, appending the padding sentinel when asked.
// The builder must not be used afterwards.
func (b *Builder) Finish(padding bool) *Vocabulary {
	v := &Vocabulary{word2id: b.word2id, id2word: b.id2word}
	if padding {
		b.insert(PadToken)
		v.id2word = b.id2word
		v.padID = len(b.id2word)
	}
	b.word2id, b.id2word = nil, nil
	return v
}

func isReserved(tok string) bool {
	return tok == UnknownToken || tok == PadToken
}

// Vocabulary is an immutable word <-> id bijection.
type Vocabulary struct {
	word2id map[string]int
	id2word []string
	padID   int // 0 when padding is disabled
}

// Size is the total number of ids, sentinels included.
func (v *Vocabulary) Size() int { return len(v.id2word) }

// PadID returns the padding id and whether padding is enabled.
func (v *Vocabulary) PadID() (int, bool) { return v.padID, v.padID != 0 }

// ID looks up a word.
func (v *Vocabulary) ID(word string) (int, bool) {
	id, ok := v.word2id[word]
	return id, ok
}

// Word looks up an id.
func (v *Vocabulary) Word(id int) (string, bool) {
	if id < 1 || id > len(v.id2word) {
		return "", false
	}
	return v.id2word[id-1], true
}

// Lookup returns the id of word, or UnknownID.
func (v *Vocabulary) Lookup(word string) int {
	if id, ok := v.word2id[word]; ok {
		return id
	}
	return UnknownID
}

// Encode maps tokens to ids; unknown words map to UnknownID.
func (v *Vocabulary) Encode(tokens []string) []int {
	ids := make([]int, len(tokens))
	for i, tok := range tokens {
		ids[i] = v.Lookup(tok)
	}
	return ids
}

// Decode maps ids back to words, skipping padding and zero cells.
// Ids outside the vocabulary decode to UnknownToken.
func (v *Vocabulary) Decode(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == 0 || (v.padID != 0 && id == v.padID) {
			continue
		}
		w, ok := v.Word(id)
		if !ok {
			w = UnknownToken
		}
		out = append(out, w)
	}
	return out
}

// Words returns the vocabulary in id order, sentinels included.
func (v *Vocabulary) Words() []string {
	out := make([]string, len(v.id2word))
	copy(out, v.id2word)
	return out
}

func idKey(id int) string { return strconv.Itoa(id) }
