// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

// Package btreemap implements an ordered key-value map laid out as a
// B-tree over a flat.Memory, rebuilt from the bytes alone.
package btreemap

import (
	"fmt"
	"math"

	"github.com/dacapoday/flat"
	"github.com/dacapoday/flat/chunk"
)

type Memory = flat.Memory

type Address = flat.Address

// Map is an ordered key-value map stored entirely in a Memory.
//
// Every mutation is written through before it returns, so reopening
// the same memory with Load yields the same map. Offset zero holds
// the header, the chunk allocator state follows, nodes fill the rest.
//
// Map is not safe for concurrent use.
type Map[K, V any] struct {
	mem    Memory
	alloc  *chunk.Allocator
	key    flat.KeyCodec[K]
	val    flat.Codec[V]
	magic  [4]byte
	degree int
	maxKey uint32
	maxVal uint32
	root   Address
	length uint64
}

func (m *Map[K, V]) maxEntries() int { return 2*m.degree - 1 }

func (m *Map[K, V]) minEntries() int { return m.degree - 1 }

// New writes a fresh empty map into mem, discarding whatever the
// memory held before. Entry bounds come from the codecs' MaxSize.
func New[K, V any](mem Memory, key flat.KeyCodec[K], val flat.Codec[V], opt Options) (m *Map[K, V], err error) {
	if opt == nil {
		opt = defaultOption{}
	}

	m = &Map[K, V]{
		mem:    mem,
		key:    key,
		val:    val,
		magic:  opt.MagicCode(),
		degree: getDegree(opt),
		maxKey: key.MaxSize(),
		maxVal: val.MaxSize(),
		root:   flat.Null,
	}

	leaf, internal := nodeSizes(m.degree, m.maxKey, m.maxVal)
	if internal > math.MaxUint32 {
		m = nil
		err = fmt.Errorf("btreemap.New: node size %d: %w", internal, ErrUnsupported)
		return
	}

	if mem.Size() == 0 {
		if _, ok := mem.Grow(1); !ok {
			m = nil
			err = fmt.Errorf("btreemap.New: %w", ErrNoSpace)
			return
		}
	}
	m.saveHeader()

	m.alloc, err = chunk.New(mem, headerSize, []uint32{uint32(leaf), uint32(internal)})
	if err != nil {
		m = nil
		err = fmt.Errorf("btreemap.New: %w", err)
	}
	return
}

// Load opens the map already present in mem. The persisted degree and
// entry bounds win; codecs that could produce larger keys or values
// than the stored bounds are rejected.
func Load[K, V any](mem Memory, key flat.KeyCodec[K], val flat.Codec[V], opt Options) (m *Map[K, V], err error) {
	if opt == nil {
		opt = defaultOption{}
	}
	if mem.Size() == 0 {
		err = fmt.Errorf("btreemap.Load: %w", ErrFileEmpty)
		return
	}

	h := readHeader(mem)
	if magic := opt.MagicCode(); h.magic != magic {
		err = fmt.Errorf("btreemap.Load: %w %v", ErrUnknownMagicCode, h.magic)
		return
	}
	if h.version != headerVersion {
		err = fmt.Errorf("btreemap.Load: version %d: %w", h.version, ErrUnsupported)
		return
	}
	if h.degree < 2 || h.degree > maxDegree {
		err = fmt.Errorf("btreemap.Load: degree %d: %w", h.degree, ErrUnsupported)
		return
	}
	if key.MaxSize() > h.maxKey {
		err = fmt.Errorf("btreemap.Load: key codec exceeds stored bound %d: %w", h.maxKey, ErrUnsupported)
		return
	}
	if val.MaxSize() > h.maxVal {
		err = fmt.Errorf("btreemap.Load: value codec exceeds stored bound %d: %w", h.maxVal, ErrUnsupported)
		return
	}
	if (h.root == flat.Null) != (h.length == 0) {
		err = fmt.Errorf("btreemap.Load: root %d with %d entries: %w", h.root, h.length, ErrBadNode)
		return
	}

	m = &Map[K, V]{
		mem:    mem,
		key:    key,
		val:    val,
		magic:  h.magic,
		degree: int(h.degree),
		maxKey: h.maxKey,
		maxVal: h.maxVal,
		root:   h.root,
		length: h.length,
	}

	m.alloc, err = chunk.Load(mem, headerSize)
	if err != nil {
		m = nil
		err = fmt.Errorf("btreemap.Load: %w", err)
		return
	}

	leaf, internal := nodeSizes(m.degree, m.maxKey, m.maxVal)
	if m.alloc.Classes() != 2 ||
		uint64(m.alloc.ChunkSize(classLeaf)) != leaf ||
		uint64(m.alloc.ChunkSize(classInternal)) != internal {
		m = nil
		err = fmt.Errorf("btreemap.Load: allocator disagrees with header: %w", ErrBadFreelist)
	}
	return
}

// Init opens the map in mem, creating it first when the memory is
// empty or still zeroed. A foreign magic code is rejected.
func Init[K, V any](mem Memory, key flat.KeyCodec[K], val flat.Codec[V], opt Options) (*Map[K, V], error) {
	if opt == nil {
		opt = defaultOption{}
	}
	if mem.Size() == 0 {
		return New(mem, key, val, opt)
	}

	var head [4]byte
	mem.Read(0, head[:])
	if head == ([4]byte{}) {
		return New(mem, key, val, opt)
	}
	if head != opt.MagicCode() {
		return nil, fmt.Errorf("btreemap.Init: %w %v", ErrUnknownMagicCode, head)
	}
	return Load(mem, key, val, opt)
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() uint64 {
	return m.length
}

// IsEmpty reports whether the map holds no entries.
func (m *Map[K, V]) IsEmpty() bool {
	return m.length == 0
}

// Memory returns the underlying memory region. Writing to the region
// directly invalidates the map.
func (m *Map[K, V]) Memory() Memory {
	return m.mem
}

// Degree returns the branching factor the map was created with.
func (m *Map[K, V]) Degree() int {
	return m.degree
}

// Get retrieves the value stored under key.
func (m *Map[K, V]) Get(key K) (val V, ok bool, err error) {
	for addr := m.root; addr != flat.Null; {
		n, e := m.readNode(addr)
		if e != nil {
			err = e
			return
		}
		i, found, e := m.search(n, key)
		if e != nil {
			err = e
			return
		}
		if found {
			if val, err = m.val.Decode(n.vals[i]); err != nil {
				err = fmt.Errorf("%w: %w", ErrBadNode, err)
				return
			}
			ok = true
			return
		}
		if n.leaf {
			return
		}
		addr = n.children[i]
	}
	return
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) (ok bool, err error) {
	for addr := m.root; addr != flat.Null; {
		n, e := m.readNode(addr)
		if e != nil {
			err = e
			return
		}
		i, found, e := m.search(n, key)
		if e != nil {
			err = e
			return
		}
		if found {
			ok = true
			return
		}
		if n.leaf {
			return
		}
		addr = n.children[i]
	}
	return
}

// First returns the smallest entry.
func (m *Map[K, V]) First() (key K, val V, ok bool, err error) {
	return m.edge(false)
}

// Last returns the largest entry.
func (m *Map[K, V]) Last() (key K, val V, ok bool, err error) {
	return m.edge(true)
}

func (m *Map[K, V]) edge(last bool) (key K, val V, ok bool, err error) {
	for addr := m.root; addr != flat.Null; {
		n, e := m.readNode(addr)
		if e != nil {
			err = e
			return
		}
		if n.leaf {
			i := 0
			if last {
				i = len(n.keys) - 1
			}
			if key, val, err = m.entry(n, i); err != nil {
				return
			}
			ok = true
			return
		}
		if last {
			addr = n.children[len(n.children)-1]
		} else {
			addr = n.children[0]
		}
	}
	return
}

func (m *Map[K, V]) entry(n *node, i int) (key K, val V, err error) {
	if key, err = m.key.Decode(n.keys[i]); err != nil {
		err = fmt.Errorf("%w: %w", ErrBadNode, err)
		return
	}
	if val, err = m.val.Decode(n.vals[i]); err != nil {
		err = fmt.Errorf("%w: %w", ErrBadNode, err)
	}
	return
}

// Clear removes every entry and returns all node chunks to the
// allocator. The map stays usable.
func (m *Map[K, V]) Clear() (err error) {
	if m.root == flat.Null {
		return
	}
	if err = m.freeTree(m.root); err != nil {
		return
	}
	m.root, m.length = flat.Null, 0
	m.saveRoot()
	return
}

func (m *Map[K, V]) freeTree(addr Address) (err error) {
	n, err := m.readNode(addr)
	if err != nil {
		return
	}
	for _, child := range n.children {
		if err = m.freeTree(child); err != nil {
			return
		}
	}
	m.recycleNode(addr, n.leaf)
	return
}
