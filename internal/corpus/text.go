package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"aligned-dataset/internal/types"
)

// maxTokenBytes bounds a single whitespace-delimited token.
const maxTokenBytes = 1024 * 1024

// Tokenize splits text on Unicode whitespace.
func Tokenize(text string) types.Tokens {
	return types.Tokens(strings.Fields(text))
}

// ReadTokens streams a raw corpus file and returns its whitespace tokens in
// file order.
func ReadTokens(path, label string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrMalformedInput, err)
	}
	defer f.Close()

	r, err := NewReader(f, label)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, maxTokenBytes)
	scanner.Split(bufio.ScanWords)

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrMalformedInput, path, err)
	}
	return tokens, nil
}
