// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/dacapoday/flat"
)

// State block layout, little-endian:
//
//	count    u16
//	reserved u16
//	classes  count × {size u32, head u64}
//	crc32c   u32 over everything above
//
// The block is rewritten whenever a head changes, so the lists on the
// region and the heads in the block never drift apart between calls.

func stateLen(count int) int64 {
	return 4 + 12*int64(count) + 4
}

func (a *Allocator) save() {
	buf := make([]byte, stateLen(len(a.sizes)))
	binary.LittleEndian.PutUint16(buf, uint16(len(a.sizes)))
	for class, size := range a.sizes {
		binary.LittleEndian.PutUint32(buf[4+12*class:], size)
		binary.LittleEndian.PutUint64(buf[8+12*class:], uint64(a.heads[class]))
	}
	sum := len(buf) - 4
	binary.LittleEndian.PutUint32(buf[sum:], checksum(buf[:sum]))
	a.mem.Write(a.base, buf)
}

func (a *Allocator) load() error {
	limit := a.mem.Size() * flat.PageSize
	if a.base < 0 || a.base+4 > limit {
		return fmt.Errorf("chunk.Load: state block at %d past region end: %w", a.base, ErrBadFreelist)
	}

	var head [4]byte
	a.mem.Read(a.base, head[:])
	count := int(binary.LittleEndian.Uint16(head[:]))
	if count == 0 || count > MaxClasses {
		return fmt.Errorf("chunk.Load: %d classes: %w", count, ErrBadFreelist)
	}
	if a.base+stateLen(count) > limit {
		return fmt.Errorf("chunk.Load: state block at %d past region end: %w", a.base, ErrBadFreelist)
	}

	buf := make([]byte, stateLen(count))
	a.mem.Read(a.base, buf)
	sum := len(buf) - 4
	if binary.LittleEndian.Uint32(buf[sum:]) != checksum(buf[:sum]) {
		return fmt.Errorf("chunk.Load: checksum: %w", ErrBadFreelist)
	}

	a.sizes = make([]uint32, count)
	a.heads = make([]Address, count)
	a.frees = make([]uint32, count)
	for class := range count {
		a.sizes[class] = binary.LittleEndian.Uint32(buf[4+12*class:])
		a.heads[class] = Address(binary.LittleEndian.Uint64(buf[8+12*class:]))
		if a.sizes[class] < addrSize {
			return fmt.Errorf("chunk.Load: class %d size %d: %w", class, a.sizes[class], ErrBadFreelist)
		}
	}
	return nil
}
