//go:build windows

package storage

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

type mapping struct {
	data   []byte
	handle windows.Handle
	addr   uintptr
}

func mapFile(f *os.File, size int64, writable bool) (*mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid mmap size: %d", size)
	}
	prot, access := uint32(windows.PAGE_READONLY), uint32(windows.FILE_MAP_READ)
	if writable {
		prot, access = windows.PAGE_READWRITE, windows.FILE_MAP_WRITE
	}

	// Map exactly size bytes; a zero maximum would freeze the mapping at the
	// file length seen when it was created.
	hi := uint32(uint64(size) >> 32)
	lo := uint32(uint64(size) & 0xffffffff)
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, prot, hi, lo, nil)
	if err != nil {
		return nil, fmt.Errorf("CreateFileMapping failed: %w", err)
	}
	addr, err := windows.MapViewOfFile(h, access, 0, 0, uintptr(size))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, fmt.Errorf("MapViewOfFile failed: %w", err)
	}
	return &mapping{
		data:   unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)),
		handle: h,
		addr:   addr,
	}, nil
}

func (m *mapping) flush() error {
	if m.addr == 0 {
		return nil
	}
	return windows.FlushViewOfFile(m.addr, uintptr(len(m.data)))
}

func (m *mapping) unmap() error {
	if m.addr != 0 {
		_ = windows.UnmapViewOfFile(m.addr)
		m.addr = 0
	}
	if m.handle != 0 {
		_ = windows.CloseHandle(m.handle)
		m.handle = 0
	}
	m.data = nil
	return nil
}

func osReplace(tmpPath, dest string) error {
	from, err := windows.UTF16PtrFromString(tmpPath)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dest)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}

func syncDir(string) error { return nil }
