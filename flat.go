// Package flat defines the capabilities for building ordered maps on
// raw linear memory.
package flat

// PageSize is the page granularity of a Memory in bytes.
const PageSize = 65536

// Address is a byte offset into a Memory.
type Address uint64

// Null marks the absence of a node. Offset 0 always holds a map header,
// never an allocated chunk, so 0 is free to act as the sentinel.
const Null Address = 0

// Memory provides access to a growable, byte-addressable linear region.
// The region is measured and grown in whole pages of PageSize bytes;
// growth is monotonic and new pages read as zero.
//
// Read and Write panic with ErrOutOfRange when the access runs past the
// current size. Callers derive offsets from addresses already stored in
// the region, so an out-of-range access is a bug, not an I/O condition.
type Memory interface {
	// Size returns the current size of the region in pages.
	Size() int64

	// Grow extends the region by delta pages, zero-filled.
	// It returns the size in pages before the call, or false if the
	// region refuses to grow.
	Grow(delta int64) (int64, bool)

	// Read copies len(dst) bytes starting at off into dst.
	Read(off int64, dst []byte)

	// Write copies src into the region starting at off.
	Write(off int64, src []byte)
}

// Codec converts values of type T to and from byte sequences of bounded
// length.
type Codec[T any] interface {
	// Append appends the serialized form of v to dst and returns the
	// extended slice.
	Append(dst []byte, v T) []byte

	// Decode reconstructs a value from its serialized form.
	Decode(src []byte) (T, error)

	// MaxSize returns the maximum serialized length in bytes.
	MaxSize() uint32
}

// KeyCodec is a Codec whose values carry a total order.
type KeyCodec[K any] interface {
	Codec[K]

	// Compare returns a negative number when a sorts before b,
	// zero when equal, and a positive number when a sorts after b.
	Compare(a, b K) int
}
