package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

type staged struct {
	dest string
	tmp  string
}

// Staging holds temporary files that stand in for a set of outputs until
// all of them have been written.
type Staging struct {
	files []staged
	done  bool
}

// Stage creates an empty temporary file beside every destination. Writers
// fill Path(dest); Commit moves the files into place, Abort discards them.
func Stage(dests ...string) (*Staging, error) {
	s := &Staging{}
	for _, dest := range dests {
		dir := filepath.Dir(dest)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = s.Abort()
			return nil, err
		}
		tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
		if err != nil {
			_ = s.Abort()
			return nil, err
		}
		s.files = append(s.files, staged{dest: dest, tmp: tmp.Name()})
		_ = os.Chmod(tmp.Name(), 0o644)
		if err := tmp.Close(); err != nil {
			_ = s.Abort()
			return nil, err
		}
	}
	return s, nil
}

// Path returns the temporary path standing in for dest.
func (s *Staging) Path(dest string) string {
	for _, f := range s.files {
		if f.dest == dest {
			return f.tmp
		}
	}
	return ""
}

// Commit renames every staged file onto its destination in staging order.
// The first failure removes the remaining staged files; destinations
// renamed before it stay replaced.
func (s *Staging) Commit() error {
	if s.done {
		return nil
	}
	for i, f := range s.files {
		if err := osReplace(f.tmp, f.dest); err != nil {
			for _, rest := range s.files[i:] {
				_ = os.Remove(rest.tmp)
			}
			s.done = true
			return fmt.Errorf("commit %s: %w", f.dest, err)
		}
		_ = syncDir(filepath.Dir(f.dest))
	}
	s.done = true
	return nil
}

// Abort removes every staged file. It is a no-op after Commit.
func (s *Staging) Abort() error {
	if s.done {
		return nil
	}
	s.done = true
	var first error
	for _, f := range s.files {
		if err := os.Remove(f.tmp); err != nil && !os.IsNotExist(err) && first == nil {
			first = err
		}
	}
	return first
}
