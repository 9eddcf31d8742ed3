package codec

import (
	"github.com/dacapoday/flat"
	"github.com/golang/snappy"
)

// Snappy wraps a value codec with snappy block compression.
// The size bound grows to snappy's worst case over the inner bound.
func Snappy[V any](inner flat.Codec[V]) flat.Codec[V] {
	return compressed[V]{inner}
}

type compressed[V any] struct {
	inner flat.Codec[V]
}

func (c compressed[V]) Append(dst []byte, v V) []byte {
	raw := c.inner.Append(nil, v)
	return append(dst, snappy.Encode(nil, raw)...)
}

func (c compressed[V]) Decode(src []byte) (v V, err error) {
	raw, err := snappy.Decode(nil, src)
	if err != nil {
		return
	}
	return c.inner.Decode(raw)
}

func (c compressed[V]) MaxSize() uint32 {
	size := snappy.MaxEncodedLen(int(c.inner.MaxSize()))
	if size < 0 {
		return 0
	}
	return uint32(size)
}
