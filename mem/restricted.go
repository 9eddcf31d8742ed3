package mem

import "github.com/dacapoday/flat"

// Restricted exposes a window of another memory as a memory of its own.
// Offsets shift by the window start and growth is refused once the
// window is full. Stacking it over a File or the Manager reserves a
// fixed page range for one component.
type Restricted struct {
	inner flat.Memory
	from  int64 // first page of the window
	to    int64 // first page past the window
}

var _ flat.Memory = new(Restricted)

// Restrict returns a view of inner covering pages [from, to).
// It panics with flat.ErrOutOfRange if the window is negative.
func Restrict(inner flat.Memory, from, to int64) *Restricted {
	if from < 0 || to < from {
		panic(flat.ErrOutOfRange)
	}
	return &Restricted{inner: inner, from: from, to: to}
}

// Size returns the part of the window inner currently backs, in pages.
func (r *Restricted) Size() int64 {
	size := r.inner.Size()
	if size <= r.from {
		return 0
	}
	return min(size, r.to) - r.from
}

// Grow extends the window by delta pages, growing inner as needed.
// It returns the previous size in pages, or false once the window
// limit would be exceeded or inner refuses to grow.
func (r *Restricted) Grow(delta int64) (int64, bool) {
	prev := r.Size()
	if delta < 0 || prev+delta > r.to-r.from {
		return prev, false
	}
	if need := r.from + prev + delta - r.inner.Size(); need > 0 {
		if _, ok := r.inner.Grow(need); !ok {
			return prev, false
		}
	}
	return prev, true
}

// Read copies len(dst) bytes starting at byte offset off into dst.
func (r *Restricted) Read(off int64, dst []byte) {
	r.check(off, int64(len(dst)))
	r.inner.Read(off+(r.from<<pageShift), dst)
}

// Write copies src into the memory starting at byte offset off.
func (r *Restricted) Write(off int64, src []byte) {
	r.check(off, int64(len(src)))
	r.inner.Write(off+(r.from<<pageShift), src)
}

func (r *Restricted) check(off, length int64) {
	if off < 0 || off+length > r.Size()<<pageShift {
		panic(flat.ErrOutOfRange)
	}
}
