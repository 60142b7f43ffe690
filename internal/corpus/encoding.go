package corpus

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ResolveEncoding maps an encoding label ("utf-8", "latin1", "utf-16le",
// "windows-1251", ...) to its decoder. Labels follow the WHATWG encoding
// registry; an empty label means UTF-8.
func ResolveEncoding(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q", label)
	}
	return enc, nil
}

// NewReader decodes r from the labelled encoding to UTF-8. A leading byte
// order mark, if any, wins over the label and is stripped.
func NewReader(r io.Reader, label string) (io.Reader, error) {
	enc, err := ResolveEncoding(label)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}
