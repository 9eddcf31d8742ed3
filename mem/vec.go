package mem

import (
	"io"
	"sync"

	"github.com/dacapoday/flat"
)

// Vec is an in-heap implementation of the flat.Memory interface.
// It is safe for concurrent use by multiple goroutines.
//
// Vec requires no initialization - just declare and use:
//
//	var m Vec
//	m.Grow(1)
//
// Limit, when non-zero, caps the size in pages and Grow refuses to
// extend past it. Set it before first use.
type Vec struct {
	Limit int64

	rw    sync.RWMutex
	pages [][]byte
}

var _ flat.Memory = new(Vec)

const pageShift = 16 // log2(flat.PageSize)

// Size returns the current size of the memory in pages.
func (v *Vec) Size() int64 {
	v.rw.RLock()
	defer v.rw.RUnlock()
	return int64(len(v.pages))
}

// Grow extends the memory by delta pages filled with zero bytes.
// It returns the size in pages before the call, or false if delta is
// negative or the configured Limit would be exceeded.
func (v *Vec) Grow(delta int64) (int64, bool) {
	v.rw.Lock()
	defer v.rw.Unlock()
	prev := int64(len(v.pages))
	if delta < 0 || (v.Limit > 0 && prev+delta > v.Limit) {
		return prev, false
	}
	for range delta {
		v.pages = append(v.pages, make([]byte, flat.PageSize))
	}
	return prev, true
}

// Read copies len(dst) bytes starting at byte offset off into dst.
// It panics with flat.ErrOutOfRange if the range is not inside the
// current size.
func (v *Vec) Read(off int64, dst []byte) {
	if len(dst) == 0 {
		return
	}
	v.rw.RLock()
	defer v.rw.RUnlock()
	v.check(off, int64(len(dst)))
	for n := 0; n < len(dst); {
		at := off + int64(n)
		page := v.pages[at>>pageShift]
		n += copy(dst[n:], page[at&(flat.PageSize-1):])
	}
}

// Write copies src into the memory starting at byte offset off.
// It panics with flat.ErrOutOfRange if the range is not inside the
// current size.
func (v *Vec) Write(off int64, src []byte) {
	if len(src) == 0 {
		return
	}
	v.rw.RLock()
	defer v.rw.RUnlock()
	v.check(off, int64(len(src)))
	for n := 0; n < len(src); {
		at := off + int64(n)
		page := v.pages[at>>pageShift]
		n += copy(page[at&(flat.PageSize-1):], src[n:])
	}
}

func (v *Vec) check(off, length int64) {
	if off < 0 || off+length > int64(len(v.pages))<<pageShift {
		panic(flat.ErrOutOfRange)
	}
}

// WriteTo writes the entire memory content to w.
// It implements io.WriterTo interface.
//
// WriteTo acquires an exclusive lock to ensure a consistent snapshot.
//
// Returns the number of bytes written and any error encountered.
func (v *Vec) WriteTo(w io.Writer) (n int64, err error) {
	v.rw.Lock()
	defer v.rw.Unlock()
	for i := range v.pages {
		c, err := w.Write(v.pages[i])
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return
}

// ReadFrom reads data from r until EOF and replaces the entire memory
// content. It implements io.ReaderFrom interface.
//
// Any existing data in the memory is discarded. A trailing partial
// page is kept and padded with zero bytes.
//
// ReadFrom returns the number of bytes read and any error encountered,
// except that io.EOF is not returned as an error.
func (v *Vec) ReadFrom(r io.Reader) (n int64, err error) {
	v.rw.Lock()
	defer v.rw.Unlock()
	v.pages = nil
	for {
		page := make([]byte, flat.PageSize)
		c, err := io.ReadFull(r, page)
		if c > 0 {
			n += int64(c)
			v.pages = append(v.pages, page)
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				err = nil
			}
			return n, err
		}
	}
}
