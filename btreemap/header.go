// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btreemap

import "encoding/binary"

// header layout at offset 0, little endian:
//
//	magic   [4]byte
//	version u8
//	_       u8
//	degree  u16
//	maxKey  u32
//	maxVal  u32
//	root    u64
//	length  u64
//
// The chunk allocator state follows at offset headerSize.
const headerSize = 32

const headerVersion = 1

const rootOffset = 16

type header struct {
	magic   [4]byte
	version uint8
	degree  uint16
	maxKey  uint32
	maxVal  uint32
	root    Address
	length  uint64
}

func readHeader(mem Memory) (h header) {
	var buf [headerSize]byte
	mem.Read(0, buf[:])
	copy(h.magic[:], buf[:4])
	h.version = buf[4]
	h.degree = binary.LittleEndian.Uint16(buf[6:])
	h.maxKey = binary.LittleEndian.Uint32(buf[8:])
	h.maxVal = binary.LittleEndian.Uint32(buf[12:])
	h.root = Address(binary.LittleEndian.Uint64(buf[16:]))
	h.length = binary.LittleEndian.Uint64(buf[24:])
	return
}

func (m *Map[K, V]) saveHeader() {
	var buf [headerSize]byte
	copy(buf[:4], m.magic[:])
	buf[4] = headerVersion
	binary.LittleEndian.PutUint16(buf[6:], uint16(m.degree))
	binary.LittleEndian.PutUint32(buf[8:], m.maxKey)
	binary.LittleEndian.PutUint32(buf[12:], m.maxVal)
	binary.LittleEndian.PutUint64(buf[16:], uint64(m.root))
	binary.LittleEndian.PutUint64(buf[24:], m.length)
	m.mem.Write(0, buf[:])
}

// saveRoot persists the root address and length after a mutation.
func (m *Map[K, V]) saveRoot() {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(m.root))
	binary.LittleEndian.PutUint64(buf[8:], m.length)
	m.mem.Write(rootOffset, buf[:])
}
