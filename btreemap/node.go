package btreemap

import (
	"encoding/binary"
	"fmt"

	"github.com/dacapoday/flat"
)

// node layout, little endian:
//
//	tag    u8    1 leaf, 2 internal
//	count  u16
//	count   × (klen u32, key, vlen u32, val)
//	count+1 × child u64   internal only
//
// A persisted node always holds at least one entry; nodes that drain
// during a removal are recycled before the operation returns.
const (
	tagLeaf     = 1
	tagInternal = 2
)

const nodeHeadSize = 3

const (
	classLeaf = iota
	classInternal
)

type node struct {
	leaf     bool
	keys     [][]byte
	vals     [][]byte
	children []Address
}

// nodeSizes returns the chunk sizes that fit a full leaf and a full
// internal node for the given bounds.
func nodeSizes(degree int, maxKey, maxVal uint32) (leaf, internal uint64) {
	entries := uint64(2*degree - 1)
	leaf = nodeHeadSize + entries*(8+uint64(maxKey)+uint64(maxVal))
	internal = leaf + uint64(2*degree)*8
	return
}

func classOf(leaf bool) int {
	if leaf {
		return classLeaf
	}
	return classInternal
}

func (m *Map[K, V]) recycleNode(addr Address, leaf bool) {
	m.alloc.Recycle(addr, classOf(leaf))
}

func (m *Map[K, V]) readNode(addr Address) (n *node, err error) {
	limit := m.mem.Size() * flat.PageSize
	if int64(addr) < headerSize || int64(addr)+nodeHeadSize > limit {
		err = fmt.Errorf("node at %d: %w", addr, ErrBadNode)
		return
	}

	var head [nodeHeadSize]byte
	m.mem.Read(int64(addr), head[:])
	tag := head[0]
	if tag != tagLeaf && tag != tagInternal {
		err = fmt.Errorf("node at %d: tag %d: %w", addr, tag, ErrBadNode)
		return
	}
	count := int(binary.LittleEndian.Uint16(head[1:]))
	if count == 0 || count > m.maxEntries() {
		err = fmt.Errorf("node at %d: count %d: %w", addr, count, ErrBadNode)
		return
	}

	size := int64(m.alloc.ChunkSize(classOf(tag == tagLeaf)))
	if int64(addr)+size > limit {
		err = fmt.Errorf("node at %d: %w", addr, ErrBadNode)
		return
	}
	payload := make([]byte, size-nodeHeadSize)
	m.mem.Read(int64(addr)+nodeHeadSize, payload)

	n = &node{
		leaf: tag == tagLeaf,
		keys: make([][]byte, 0, count),
		vals: make([][]byte, 0, count),
	}
	off := 0
	for range count {
		var key, val []byte
		if key, off, err = cut(payload, off, m.maxKey); err != nil {
			break
		}
		if val, off, err = cut(payload, off, m.maxVal); err != nil {
			break
		}
		n.keys = append(n.keys, key)
		n.vals = append(n.vals, val)
	}
	if err != nil {
		n = nil
		err = fmt.Errorf("node at %d: %w", addr, err)
		return
	}
	if !n.leaf {
		n.children = make([]Address, 0, count+1)
		for range count + 1 {
			if off+8 > len(payload) {
				n = nil
				err = fmt.Errorf("node at %d: %w", addr, ErrBadNode)
				return
			}
			n.children = append(n.children, Address(binary.LittleEndian.Uint64(payload[off:])))
			off += 8
		}
	}
	return
}

// cut slices the next length-prefixed field out of payload.
func cut(payload []byte, off int, bound uint32) ([]byte, int, error) {
	if off+4 > len(payload) {
		return nil, off, ErrBadNode
	}
	size := binary.LittleEndian.Uint32(payload[off:])
	off += 4
	if size > bound || off+int(size) > len(payload) {
		return nil, off, ErrBadNode
	}
	return payload[off : off+int(size)], off + int(size), nil
}

func (m *Map[K, V]) writeNode(addr Address, n *node) {
	assertNode("btreemap.writeNode", n, m.maxEntries())

	buf := make([]byte, nodeHeadSize, m.alloc.ChunkSize(classOf(n.leaf)))
	if n.leaf {
		buf[0] = tagLeaf
	} else {
		buf[0] = tagInternal
	}
	binary.LittleEndian.PutUint16(buf[1:], uint16(len(n.keys)))
	for i, key := range n.keys {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(key)))
		buf = append(buf, key...)
		val := n.vals[i]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(val)))
		buf = append(buf, val...)
	}
	for _, child := range n.children {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(child))
	}
	m.mem.Write(int64(addr), buf)
}

// search locates key in n, decoding stored keys to compare.
// Without a hit, i is where the key would be inserted.
func (m *Map[K, V]) search(n *node, key K) (i int, found bool, err error) {
	lo, hi := 0, len(n.keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		probe, e := m.key.Decode(n.keys[mid])
		if e != nil {
			err = fmt.Errorf("%w: %w", ErrBadNode, e)
			return
		}
		switch cmp := m.key.Compare(key, probe); {
		case cmp > 0:
			lo = mid + 1
		case cmp < 0:
			hi = mid
		default:
			i, found = mid, true
			return
		}
	}
	i = lo
	return
}

// split moves the upper half of a full n into a fresh right sibling
// and returns the separator entry.
func split(n *node, degree int) (midKey, midVal []byte, right *node) {
	midKey, midVal = n.keys[degree-1], n.vals[degree-1]
	right = &node{leaf: n.leaf}
	right.keys = append(right.keys, n.keys[degree:]...)
	right.vals = append(right.vals, n.vals[degree:]...)
	n.keys = n.keys[:degree-1]
	n.vals = n.vals[:degree-1]
	if !n.leaf {
		right.children = append(right.children, n.children[degree:]...)
		n.children = n.children[:degree]
	}
	return
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeAt[T any](s []T, i int) ([]T, T) {
	v := s[i]
	copy(s[i:], s[i+1:])
	return s[: len(s)-1 : len(s)-1], v
}
