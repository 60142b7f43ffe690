package vocab

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aligned-dataset/internal/types"
)

func build(a, b string, padding bool) *Vocabulary {
	bld := NewBuilder()
	bld.Consume(strings.Fields(a), Trusted)
	bld.Consume(strings.Fields(b), Untrusted)
	return bld.Finish(padding)
}

func TestBuilder_Example(t *testing.T) {
	v := build("a b b c c c", "b b b d d d d", true)

	assert.Equal(t, []string{UnknownToken, "b", "c", "d", PadToken}, v.Words())
	assert.Equal(t, 5, v.Size())

	pad, ok := v.PadID()
	require.True(t, ok)
	assert.Equal(t, 5, pad)

	_, ok = v.ID("a")
	assert.False(t, ok, "a is seen once in the trusted stream")
	assert.Equal(t, UnknownID, v.Lookup("a"))
}

func TestBuilder_UntrustedNeedsFourthSighting(t *testing.T) {
	bld := NewBuilder()
	assert.Equal(t, 0, bld.Consume([]string{"d", "d", "d"}, Untrusted))
	assert.Equal(t, 1, bld.Consume([]string{"d", "d", "d", "d"}, Untrusted))
	assert.Equal(t, 2, bld.Size())
}

func TestBuilder_CountsArePerStream(t *testing.T) {
	bld := NewBuilder()
	bld.Consume([]string{"x"}, Trusted)
	// A single trusted sighting does not count towards the untrusted bar.
	bld.Consume([]string{"x", "x", "x"}, Untrusted)
	v := bld.Finish(false)
	_, ok := v.ID("x")
	assert.False(t, ok)
}

func TestBuilder_Idempotent(t *testing.T) {
	bld := NewBuilder()
	bld.Consume([]string{"w", "w", "w", "w"}, Trusted)
	bld.Consume([]string{"w", "w", "w", "w"}, Untrusted)
	v := bld.Finish(false)
	id, ok := v.ID("w")
	require.True(t, ok)
	assert.Equal(t, 2, id)
	assert.Equal(t, 2, v.Size())
}

func TestBuilder_ReservedSpellingsNeverAllocated(t *testing.T) {
	v := build("NaN NaN <PAD> <PAD> e e", "", true)
	assert.Equal(t, []string{UnknownToken, "e", PadToken}, v.Words())
	id, _ := v.ID(UnknownToken)
	assert.Equal(t, UnknownID, id)
}

func TestBuilder_NoPadding(t *testing.T) {
	v := build("a a", "", false)
	_, ok := v.PadID()
	assert.False(t, ok)
	_, ok = v.ID(PadToken)
	assert.False(t, ok)
	assert.Equal(t, 2, v.Size())
}

func TestVocabulary_DenseIDs(t *testing.T) {
	v := build("the cat the cat sat on the mat mat", "on on on on dog dog dog dog", true)
	for id := 1; id <= v.Size(); id++ {
		w, ok := v.Word(id)
		require.True(t, ok)
		back, ok := v.ID(w)
		require.True(t, ok)
		assert.Equal(t, id, back)
	}
	_, ok := v.Word(0)
	assert.False(t, ok)
	_, ok = v.Word(v.Size() + 1)
	assert.False(t, ok)
}

func TestVocabulary_EncodeDecode(t *testing.T) {
	v := build("a a b b", "", true)
	pad, _ := v.PadID()

	ids := v.Encode([]string{"a", "zzz", "b"})
	assert.Equal(t, []int{2, UnknownID, 3}, ids)
	assert.Equal(t, []string{"a", UnknownToken, "b"}, v.Decode(append(ids, pad, pad, 0)))
}

func TestDictionary_RoundTrip(t *testing.T) {
	v := build("a b b c c c", "b b b d d d d", true)

	var buf bytes.Buffer
	require.NoError(t, WriteDictionary(&buf, v))

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, "c", raw["id2word"]["3"])
	assert.EqualValues(t, 4, raw["word2id"]["d"])

	back, err := ReadDictionary(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, v.Words(), back.Words())
	pad, ok := back.PadID()
	require.True(t, ok)
	assert.Equal(t, 5, pad)
}

func TestDictionary_Deterministic(t *testing.T) {
	a, err := build("x y x y z z", "", true).MarshalJSON()
	require.NoError(t, err)
	b, err := build("x y x y z z", "", true).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReadDictionary_Malformed(t *testing.T) {
	docs := []string{
		`{}`,
		`{"word2id": {"a": 1}, "id2word": {}}`,
		`{"word2id": {"a": 1}, "id2word": {"2": "a"}}`,
		`{"word2id": {"a": 1, "b": 2}, "id2word": {"1": "a", "2": "a"}}`,
		`not json`,
	}
	for _, doc := range docs {
		_, err := ReadDictionary(strings.NewReader(doc))
		require.ErrorIs(t, err, types.ErrMalformedInput, doc)
	}
}
