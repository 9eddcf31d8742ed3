//go:build unix

package mem

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"unsafe"

	"github.com/dacapoday/flat"
)

// File is a file-backed implementation of the flat.Memory interface
// using a shared memory mapping. Writes land in the page cache and
// reach the file on Sync or Close.
//
// It is safe for concurrent use by multiple goroutines.
type File struct {
	rw   sync.RWMutex
	file *os.File
	data []byte
}

var _ flat.Memory = new(File)

// OpenFile opens or creates the file at path and maps it.
// The file size must be a whole number of pages; anything else is
// reported as flat.ErrFileTruncated.
func OpenFile(path string) (*File, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	size := info.Size()
	if size%flat.PageSize != 0 {
		file.Close()
		return nil, fmt.Errorf("mem.OpenFile(%s): size %d: %w", path, size, flat.ErrFileTruncated)
	}

	f := &File{file: file}
	if err = f.mmap(size); err != nil {
		file.Close()
		return nil, fmt.Errorf("mem.OpenFile(%s): %w", path, err)
	}
	return f, nil
}

func (f *File) mmap(size int64) error {
	if size == 0 {
		f.data = nil
		return nil
	}
	data, err := syscall.Mmap(int(f.file.Fd()), 0, int(size),
		syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return err
	}
	f.data = data
	return nil
}

func (f *File) munmap() error {
	if f.data == nil {
		return nil
	}
	err := syscall.Munmap(f.data)
	f.data = nil
	return err
}

// Size returns the current size of the memory in pages.
func (f *File) Size() int64 {
	f.rw.RLock()
	defer f.rw.RUnlock()
	return int64(len(f.data)) >> pageShift
}

// Grow extends the file by delta pages filled with zero bytes and
// remaps it. It returns the size in pages before the call, or false
// if the file cannot be extended.
func (f *File) Grow(delta int64) (int64, bool) {
	f.rw.Lock()
	defer f.rw.Unlock()
	prev := int64(len(f.data)) >> pageShift
	if delta < 0 {
		return prev, false
	}
	size := (prev + delta) << pageShift
	if err := f.file.Truncate(size); err != nil {
		return prev, false
	}
	if err := f.munmap(); err != nil {
		return prev, false
	}
	if err := f.mmap(size); err != nil {
		f.mmap(prev << pageShift) // keep the old window usable
		return prev, false
	}
	return prev, true
}

// Read copies len(dst) bytes starting at byte offset off into dst.
// It panics with flat.ErrOutOfRange if the range is not inside the
// current size.
func (f *File) Read(off int64, dst []byte) {
	if len(dst) == 0 {
		return
	}
	f.rw.RLock()
	defer f.rw.RUnlock()
	if off < 0 || off+int64(len(dst)) > int64(len(f.data)) {
		panic(flat.ErrOutOfRange)
	}
	copy(dst, f.data[off:])
}

// Write copies src into the memory starting at byte offset off.
// It panics with flat.ErrOutOfRange if the range is not inside the
// current size.
func (f *File) Write(off int64, src []byte) {
	if len(src) == 0 {
		return
	}
	f.rw.RLock()
	defer f.rw.RUnlock()
	if off < 0 || off+int64(len(src)) > int64(len(f.data)) {
		panic(flat.ErrOutOfRange)
	}
	copy(f.data[off:], src)
}

// Sync flushes the mapped region to the underlying file.
func (f *File) Sync() error {
	f.rw.RLock()
	defer f.rw.RUnlock()
	return f.msync()
}

func (f *File) msync() error {
	if f.data == nil {
		return nil
	}
	_, _, errno := syscall.Syscall(syscall.SYS_MSYNC,
		uintptr(unsafe.Pointer(&f.data[0])),
		uintptr(len(f.data)),
		uintptr(syscall.MS_SYNC))
	if errno != 0 {
		return errno
	}
	return nil
}

// Close flushes and unmaps the memory and closes the file.
// The File must not be used after Close.
func (f *File) Close() error {
	f.rw.Lock()
	defer f.rw.Unlock()
	err := f.msync()
	if e := f.munmap(); err == nil {
		err = e
	}
	if e := f.file.Close(); err == nil {
		err = e
	}
	return err
}
