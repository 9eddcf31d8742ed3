// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package codec provides key and value codecs for btreemap.
package codec

import (
	"bytes"
	"cmp"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/dacapoday/flat"
)

// U64 encodes uint64 keys as 8 little endian bytes.
type U64 struct{}

var _ flat.KeyCodec[uint64] = U64{}

func (U64) Append(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

func (U64) Decode(src []byte) (uint64, error) {
	if len(src) != 8 {
		return 0, fmt.Errorf("codec.U64: %d bytes", len(src))
	}
	return binary.LittleEndian.Uint64(src), nil
}

func (U64) MaxSize() uint32 { return 8 }

func (U64) Compare(a, b uint64) int { return cmp.Compare(a, b) }

// Str encodes string keys as raw bytes. The value of the type is the
// size bound, e.g. codec.Str(64) for keys up to 64 bytes.
type Str uint32

var _ flat.KeyCodec[string] = Str(0)

func (Str) Append(dst []byte, v string) []byte { return append(dst, v...) }

func (Str) Decode(src []byte) (string, error) { return string(src), nil }

func (s Str) MaxSize() uint32 { return uint32(s) }

func (Str) Compare(a, b string) int { return strings.Compare(a, b) }

// Bytes encodes byte slices verbatim. The value of the type is the
// size bound. Decode copies, so results stay valid after the source
// buffer is reused.
type Bytes uint32

var _ flat.KeyCodec[[]byte] = Bytes(0)

func (Bytes) Append(dst []byte, v []byte) []byte { return append(dst, v...) }

func (Bytes) Decode(src []byte) ([]byte, error) {
	out := make([]byte, len(src))
	copy(out, src)
	return out, nil
}

func (b Bytes) MaxSize() uint32 { return uint32(b) }

func (Bytes) Compare(a, b []byte) int { return bytes.Compare(a, b) }
