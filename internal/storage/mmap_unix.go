//go:build !windows

package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type mapping struct {
	data []byte
}

func mapFile(f *os.File, size int64, writable bool) (*mapping, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), prot, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap failed: %w", err)
	}
	return &mapping{data: data}, nil
}

func (m *mapping) flush() error {
	return unix.Msync(m.data, unix.MS_SYNC)
}

func (m *mapping) unmap() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

func osReplace(tmpPath, dest string) error {
	return os.Rename(tmpPath, dest)
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
