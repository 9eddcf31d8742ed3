// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package chunk hands out fixed-size spans of linear memory and takes
// them back through per-class free lists that survive restarts.
//
// Free chunks of a class form a singly linked list threaded through
// the chunks themselves: the first 8 bytes of a free chunk hold the
// address of the next one. The state block at the allocator's base
// records only the list heads, so the whole allocator is rebuilt from
// the region alone.
package chunk

import (
	"encoding/binary"
	"fmt"

	"github.com/dacapoday/flat"
)

type Memory = flat.Memory

type Address = flat.Address

// Allocator carves chunks of configured size classes out of a Memory.
//
// It is not safe for concurrent use; the owner of the enclosing map
// serializes access.
type Allocator struct {
	mem   Memory
	base  int64
	sizes []uint32
	heads []Address
	frees []uint32
}

const addrSize = 8

// MaxClasses bounds the number of size classes an Allocator manages.
const MaxClasses = 64

// New writes a fresh allocator state block at base and returns the
// allocator. The memory is grown if it does not yet cover the state
// block. Each class size must hold at least a free-list link.
func New(mem Memory, base int64, sizes []uint32) (*Allocator, error) {
	if base < 0 || len(sizes) == 0 || len(sizes) > MaxClasses {
		return nil, fmt.Errorf("chunk.New: %d classes: %w", len(sizes), ErrUnsupported)
	}
	for _, size := range sizes {
		if size < addrSize {
			return nil, fmt.Errorf("chunk.New: chunk size %d: %w", size, ErrUnsupported)
		}
	}

	a := &Allocator{
		mem:   mem,
		base:  base,
		sizes: append([]uint32(nil), sizes...),
		heads: make([]Address, len(sizes)),
		frees: make([]uint32, len(sizes)),
	}
	if short := base + stateLen(len(sizes)) - mem.Size()*flat.PageSize; short > 0 {
		pages := (short + flat.PageSize - 1) / flat.PageSize
		if _, ok := mem.Grow(pages); !ok {
			return nil, fmt.Errorf("chunk.New: %w", ErrNoSpace)
		}
	}
	a.save()
	return a, nil
}

// Load reads the allocator state block at base and rebuilds the free
// counts by walking every list. A broken checksum, an address outside
// the region or a cycle is reported as ErrBadFreelist.
func Load(mem Memory, base int64) (*Allocator, error) {
	a := &Allocator{mem: mem, base: base}
	if err := a.load(); err != nil {
		return nil, err
	}

	limit := mem.Size() * flat.PageSize
	floor := base + stateLen(len(a.sizes))
	for class, size := range a.sizes {
		steps := limit / int64(size)
		var count uint32
		for addr := a.heads[class]; addr != flat.Null; {
			if int64(addr) < floor || int64(addr)+int64(size) > limit {
				return nil, fmt.Errorf("chunk.Load: class %d chain at %d: %w", class, addr, ErrBadFreelist)
			}
			if steps--; steps < 0 {
				return nil, fmt.Errorf("chunk.Load: class %d chain cycles: %w", class, ErrBadFreelist)
			}
			count++
			addr = a.next(addr)
		}
		a.frees[class] = count
	}
	return a, nil
}

// Allocate returns the address of a chunk of the given class.
// It pops the free list when possible; otherwise it grows the memory
// by exactly enough whole pages for one chunk, hands out the first
// chunk of the new region and pushes the rest onto the free list.
// A refused grow is reported as ErrNoSpace and leaves every structure
// untouched.
func (a *Allocator) Allocate(class int) (Address, error) {
	assertClass("chunk.Allocate", class, len(a.sizes))
	size := int64(a.sizes[class])

	if head := a.heads[class]; head != flat.Null {
		a.heads[class] = a.next(head)
		a.frees[class]--
		a.save()
		return head, nil
	}

	pages := (size + flat.PageSize - 1) / flat.PageSize
	prev, ok := a.mem.Grow(pages)
	if !ok {
		return flat.Null, fmt.Errorf("chunk.Allocate(%d): %w", size, ErrNoSpace)
	}

	start := prev * flat.PageSize
	for i := pages * flat.PageSize / size; i > 1; i-- {
		a.link(Address(start+(i-1)*size), a.heads[class])
		a.heads[class] = Address(start + (i-1)*size)
		a.frees[class]++
	}
	a.save()
	return Address(start), nil
}

// Recycle prepends the chunk to its class's free list.
// The chunk's first bytes are overwritten with the list link; the
// address must come from a matching Allocate.
func (a *Allocator) Recycle(addr Address, class int) {
	assertClass("chunk.Recycle", class, len(a.sizes))
	assertAddress("chunk.Recycle", addr, a.base+stateLen(len(a.sizes)))

	a.link(addr, a.heads[class])
	a.heads[class] = addr
	a.frees[class]++
	a.save()
}

// Classes returns the number of configured size classes.
func (a *Allocator) Classes() int {
	return len(a.sizes)
}

// ChunkSize returns the chunk size of the given class in bytes.
func (a *Allocator) ChunkSize(class int) uint32 {
	return a.sizes[class]
}

// Free returns the number of chunks on the given class's free list.
func (a *Allocator) Free(class int) uint32 {
	return a.frees[class]
}

func (a *Allocator) next(addr Address) Address {
	var buf [addrSize]byte
	a.mem.Read(int64(addr), buf[:])
	return Address(binary.LittleEndian.Uint64(buf[:]))
}

func (a *Allocator) link(addr, next Address) {
	var buf [addrSize]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(next))
	a.mem.Write(int64(addr), buf[:])
}
