package storage

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"aligned-dataset/internal/matrix"
	"aligned-dataset/internal/types"
)

const (
	cellSize = 4 // uint32

	// File header (v1):
	//   0..7   magic "ALNARR01"
	//   8..15  array count (uint64)
	// then per array:
	//   name length (uint32), name bytes
	//   rows (uint64), cols (uint64)
	//   rows*cols uint32 cells, row-major
	HeaderSize      = 16
	arrayHeaderSize = 4 + 8 + 8
)

var fileMagic = [8]byte{'A', 'L', 'N', 'A', 'R', 'R', '0', '1'}

func containerSize(arrays []NamedArray) int64 {
	size := int64(HeaderSize)
	for _, a := range arrays {
		size += arrayHeaderSize + int64(len(a.Name)) + int64(a.Matrix.Rows)*int64(a.Matrix.Cols)*cellSize
	}
	return size
}

// WriteContainer writes arrays to path in order, replacing any existing
// file. The file is sized up front, filled through a memory map and synced
// before returning.
func WriteContainer(path string, arrays []NamedArray) error {
	for _, a := range arrays {
		if a.Matrix == nil || len(a.Matrix.Data) != a.Matrix.Rows*a.Matrix.Cols {
			return fmt.Errorf("array %q: malformed matrix", a.Name)
		}
		if uint64(len(a.Name)) > math.MaxUint32 {
			return fmt.Errorf("array name too long: %d bytes", len(a.Name))
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	size := containerSize(arrays)
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return err
	}

	m, err := mapFile(f, size, true)
	if err != nil {
		_ = f.Close()
		return err
	}

	buf := m.data
	copy(buf[:8], fileMagic[:])
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(arrays)))
	off := HeaderSize
	for _, a := range arrays {
		binary.LittleEndian.PutUint32(buf[off:], uint32(len(a.Name)))
		off += 4
		off += copy(buf[off:], a.Name)
		binary.LittleEndian.PutUint64(buf[off:], uint64(a.Matrix.Rows))
		binary.LittleEndian.PutUint64(buf[off+8:], uint64(a.Matrix.Cols))
		off += 16
		for _, c := range a.Matrix.Data {
			binary.LittleEndian.PutUint32(buf[off:], c)
			off += cellSize
		}
	}

	if err := m.flush(); err != nil {
		_ = m.unmap()
		_ = f.Close()
		return fmt.Errorf("flush failed: %w", err)
	}
	if err := m.unmap(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

type arrayEntry struct {
	name   string
	rows   int
	cols   int
	offset int // first cell
}

// Container is a read-only view of a container file.
type Container struct {
	path    string
	file    *os.File
	m       *mapping
	entries []arrayEntry
}

var _ ArrayReader = (*Container)(nil)

// OpenContainer maps path and validates its layout. Any inconsistency is
// reported as types.ErrCorruptContainer.
func OpenContainer(path string) (*Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.Size() < HeaderSize {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s too small for header: %d < %d", types.ErrCorruptContainer, path, info.Size(), HeaderSize)
	}

	m, err := mapFile(f, info.Size(), false)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	c := &Container{path: path, file: f, m: m}
	if err := c.readIndex(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", types.ErrCorruptContainer, c.path, fmt.Sprintf(format, args...))
}

func (c *Container) readIndex() error {
	buf := c.m.data
	var mg [8]byte
	copy(mg[:], buf[:8])
	if mg != fileMagic {
		return c.corrupt("magic mismatch")
	}
	count := binary.LittleEndian.Uint64(buf[8:16])

	size := uint64(len(buf))
	off := uint64(HeaderSize)
	seen := make(map[string]bool)
	for i := uint64(0); i < count; i++ {
		if size-off < 4 {
			return c.corrupt("array %d header truncated", i)
		}
		nameLen := uint64(binary.LittleEndian.Uint32(buf[off:]))
		off += 4
		if size-off < nameLen+16 {
			return c.corrupt("array %d header truncated", i)
		}
		name := string(buf[off : off+nameLen])
		off += nameLen
		rows := binary.LittleEndian.Uint64(buf[off:])
		cols := binary.LittleEndian.Uint64(buf[off+8:])
		off += 16

		if cols != 0 && rows > (size-off)/cellSize/cols {
			return c.corrupt("array %q (%dx%d) exceeds file size", name, rows, cols)
		}
		if seen[name] {
			return c.corrupt("duplicate array %q", name)
		}
		seen[name] = true
		c.entries = append(c.entries, arrayEntry{name: name, rows: int(rows), cols: int(cols), offset: int(off)})
		off += rows * cols * cellSize
	}
	if off != size {
		return c.corrupt("%d trailing bytes", size-off)
	}
	return nil
}

// Names lists the arrays in file order.
func (c *Container) Names() []string {
	out := make([]string, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.name
	}
	return out
}

// Shape returns the dimensions of the named array.
func (c *Container) Shape(name string) (rows, cols int, ok bool) {
	for _, e := range c.entries {
		if e.name == name {
			return e.rows, e.cols, true
		}
	}
	return 0, 0, false
}

// Array copies the named array out of the mapping.
func (c *Container) Array(name string) (*matrix.Matrix, error) {
	for _, e := range c.entries {
		if e.name != name {
			continue
		}
		m := matrix.New(e.rows, e.cols)
		for i := range m.Data {
			m.Data[i] = binary.LittleEndian.Uint32(c.m.data[e.offset+i*cellSize:])
		}
		return m, nil
	}
	return nil, fmt.Errorf("array %q not found in %s", name, c.path)
}

// Close unmaps and closes the file.
func (c *Container) Close() error {
	_ = c.m.unmap()
	return c.file.Close()
}
