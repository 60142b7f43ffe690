// Package index keeps the per-element read cursors into the reference
// sentence pool.
//
// Every element owns one run: the contiguous block of sentences that starts
// at the element's first occurrence in the pool. Sentences of the element
// that reappear after a different element has interrupted the block are
// never served. Run boundaries are computed once, so a fetch only ever
// touches indices inside its run.
package index

import (
	"fmt"

	"aligned-dataset/internal/types"
)

// Run is the half-open block [Start, End) of an element's sentences.
type Run struct {
	Start int
	End   int
}

// Len is the number of sentences in the run.
func (r Run) Len() int { return r.End - r.Start }

// CursorStore rotates through each element's run. It is owned by a single
// partitioner and is not safe for concurrent use.
type CursorStore struct {
	sentences []types.Sentence
	runs      map[types.Element]Run
	offset    map[types.Element]int
	wraps     map[types.Element]int
	stray     int
}

// NewCursorStore indexes the pool. The pool must not be modified afterwards.
func NewCursorStore(sentences []types.Sentence) *CursorStore {
	s := &CursorStore{
		sentences: sentences,
		runs:      make(map[types.Element]Run),
		offset:    make(map[types.Element]int),
		wraps:     make(map[types.Element]int),
	}
	for i := 0; i < len(sentences); {
		el := sentences[i].Element
		j := i + 1
		for j < len(sentences) && sentences[j].Element == el {
			j++
		}
		if _, seen := s.runs[el]; seen {
			s.stray += j - i
		} else {
			s.runs[el] = Run{Start: i, End: j}
			s.offset[el] = 0
		}
		i = j
	}
	return s
}

// Run returns the run of el.
func (s *CursorStore) Run(el types.Element) (Run, bool) {
	r, ok := s.runs[el]
	return r, ok
}

// Elements is the number of distinct elements in the pool.
func (s *CursorStore) Elements() int { return len(s.runs) }

// Stray is the number of sentences outside their element's first run.
func (s *CursorStore) Stray() int { return s.stray }

// Offset returns how far into its run el's cursor has advanced.
func (s *CursorStore) Offset(el types.Element) int { return s.offset[el] }

// Wraps returns how many times el's cursor went back to the run start.
func (s *CursorStore) Wraps(el types.Element) int { return s.wraps[el] }

// Validate reports the first element in elements that has no sentences.
func (s *CursorStore) Validate(elements []types.Element) error {
	for _, el := range elements {
		if _, ok := s.runs[el]; !ok {
			return fmt.Errorf("%w: element %q has no reference sentences", types.ErrConfiguration, el)
		}
	}
	return nil
}

// Fetch returns the next count sentences of el's run, continuing at el's
// offset and wrapping to the run start whenever the run is exhausted. A run
// shorter than count is cycled as often as needed.
//
// The offset then advances by count from where it stood after the last
// wrap: offset+count without a wrap, count with one. An offset at or past
// the run end wraps on the next fetch.
func (s *CursorStore) Fetch(el types.Element, count int) ([]types.Tokens, error) {
	run, ok := s.runs[el]
	if !ok {
		return nil, fmt.Errorf("%w: element %q has no reference sentences", types.ErrConfiguration, el)
	}
	if count < 1 {
		return nil, fmt.Errorf("%w: aligned sentence count must be >= 1, got %d", types.ErrInvalidOption, count)
	}

	n := run.Len()
	offset := s.offset[el]
	pos := offset
	out := make([]types.Tokens, 0, count)
	for len(out) < count {
		if pos >= n {
			pos, offset = 0, 0
			s.wraps[el]++
		}
		out = append(out, s.sentences[run.Start+pos].Tokens)
		pos++
	}
	s.offset[el] = offset + count
	return out, nil
}
