package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aligned-dataset/internal/types"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadTokens(t *testing.T) {
	path := writeFile(t, "corpus.txt", []byte("a b  b\nc\tc c\n\n"))
	toks, err := ReadTokens(path, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b", "c", "c", "c"}, toks)
}

func TestReadTokens_StripsBOM(t *testing.T) {
	path := writeFile(t, "bom.txt", []byte("\xEF\xBB\xBFhello world"))
	toks, err := ReadTokens(path, "utf-8")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, toks)
}

func TestReadTokens_Latin1(t *testing.T) {
	path := writeFile(t, "latin1.txt", []byte("caf\xE9 au lait"))
	toks, err := ReadTokens(path, "latin1")
	require.NoError(t, err)
	assert.Equal(t, []string{"café", "au", "lait"}, toks)
}

func TestReadTokens_Missing(t *testing.T) {
	_, err := ReadTokens(filepath.Join(t.TempDir(), "nope.txt"), "utf-8")
	require.ErrorIs(t, err, types.ErrMalformedInput)
}

func TestResolveEncoding(t *testing.T) {
	_, err := ResolveEncoding("")
	require.NoError(t, err)
	_, err = ResolveEncoding("UTF-8")
	require.NoError(t, err)
	_, err = ResolveEncoding("klingon-8")
	require.Error(t, err)
}

func TestLoadSentences(t *testing.T) {
	doc := `{
		"wiki_sentences": [["x","y"],["z"],["p","q","r"]],
		"wiki_elements": ["A","A","B"],
		"wiki_sentences_length": [2, 1, 4]
	}`
	pool, err := LoadSentences(writeFile(t, "s.json", []byte(doc)), "utf-8")
	require.NoError(t, err)
	require.Len(t, pool.Sentences, 3)
	assert.Equal(t, types.Element("A"), pool.Sentences[1].Element)
	assert.Equal(t, types.Tokens{"z"}, pool.Sentences[1].Tokens)
	assert.Equal(t, 3, pool.MaxTokens)
	assert.Equal(t, 1, pool.LengthMismatches)
}

func TestLoadSentences_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing sentences", `{"wiki_elements": [], "wiki_sentences_length": []}`},
		{"missing elements", `{"wiki_sentences": [], "wiki_sentences_length": []}`},
		{"missing lengths", `{"wiki_sentences": [], "wiki_elements": []}`},
		{"not parallel", `{"wiki_sentences": [["a"]], "wiki_elements": [], "wiki_sentences_length": [1]}`},
		{"not json", `wiki_sentences`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSentences(writeFile(t, "s.json", []byte(tt.doc)), "utf-8")
			require.ErrorIs(t, err, types.ErrMalformedInput)
		})
	}
}

func TestLoadSequences_DocumentOrder(t *testing.T) {
	doc := `{"zeta": ["one two", "three"], "alpha": ["four five six"], "mid": []}`
	seqs, err := LoadSequences(writeFile(t, "q.json", []byte(doc)), "utf-8")
	require.NoError(t, err)
	require.Equal(t, []types.Sequence{
		{Element: "zeta", Text: "one two", Length: 2},
		{Element: "zeta", Text: "three", Length: 1},
		{Element: "alpha", Text: "four five six", Length: 3},
	}, seqs)
}

func TestLoadSequences_Malformed(t *testing.T) {
	for _, doc := range []string{`["a"]`, `{"a": "not a list"}`, `{"a": ["x"]`} {
		_, err := LoadSequences(writeFile(t, "q.json", []byte(doc)), "utf-8")
		require.ErrorIs(t, err, types.ErrMalformedInput, doc)
	}
}
