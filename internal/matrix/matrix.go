// Package matrix turns aligned records into fixed-width id matrices.
package matrix

import (
	"fmt"

	"aligned-dataset/internal/types"
	"aligned-dataset/internal/vocab"
)

// Matrix is a dense row-major uint32 matrix.
type Matrix struct {
	Rows int
	Cols int
	Data []uint32
}

// New allocates a zeroed rows x cols matrix.
func New(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]uint32, rows*cols)}
}

// Row returns row i as a view into Data.
func (m *Matrix) Row(i int) []uint32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// At returns cell (i, j).
func (m *Matrix) At(i, j int) uint32 { return m.Data[i*m.Cols+j] }

func fillRow(row []uint32, tokens types.Tokens, v *vocab.Vocabulary, pad uint32) error {
	if len(tokens) > len(row) {
		return fmt.Errorf("%w: %d tokens do not fit %d columns", types.ErrInvalidOption, len(tokens), len(row))
	}
	for j, tok := range tokens {
		row[j] = uint32(v.Lookup(tok))
	}
	for j := len(tokens); j < len(row); j++ {
		row[j] = pad
	}
	return nil
}

func padCell(v *vocab.Vocabulary) uint32 {
	if id, ok := v.PadID(); ok {
		return uint32(id)
	}
	return 0
}

// EncodeSequences builds one row per record holding its sequence ids,
// left-aligned and padded on the right to cols.
func EncodeSequences(records []types.AlignedRecord, v *vocab.Vocabulary, cols int) (*Matrix, error) {
	m := New(len(records), cols)
	pad := padCell(v)
	for i, rec := range records {
		if err := fillRow(m.Row(i), rec.Sequence, v, pad); err != nil {
			return nil, fmt.Errorf("sequence row %d: %w", i, err)
		}
	}
	return m, nil
}

// EncodeSentences builds n consecutive rows per record, one per aligned
// sentence, each padded to cols.
func EncodeSentences(records []types.AlignedRecord, v *vocab.Vocabulary, n, cols int) (*Matrix, error) {
	m := New(len(records)*n, cols)
	pad := padCell(v)
	for i, rec := range records {
		if len(rec.Sentences) != n {
			return nil, fmt.Errorf("%w: record %d has %d aligned sentences, want %d", types.ErrInvalidOption, i, len(rec.Sentences), n)
		}
		for k, sent := range rec.Sentences {
			if err := fillRow(m.Row(i*n+k), sent, v, pad); err != nil {
				return nil, fmt.Errorf("sentence row %d: %w", i*n+k, err)
			}
		}
	}
	return m, nil
}

// DecodeRow maps a row back to words, dropping padding cells.
func DecodeRow(row []uint32, v *vocab.Vocabulary) []string {
	ids := make([]int, len(row))
	for j, c := range row {
		ids[j] = int(c)
	}
	return v.Decode(ids)
}
