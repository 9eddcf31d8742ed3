// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btreemap

import (
	"fmt"

	"github.com/dacapoday/flat"
)

type toRemove int

const (
	removeItem toRemove = iota // remove the given key
	removeMin                  // remove the smallest entry
	removeMax                  // remove the largest entry
)

type rawEntry struct {
	key []byte
	val []byte
}

// Remove deletes key and returns the value it held.
func (m *Map[K, V]) Remove(key K) (prev V, removed bool, err error) {
	out, found, err := m.removeTop(key, removeItem)
	if err != nil || !found {
		return
	}
	if prev, err = m.val.Decode(out.val); err != nil {
		err = fmt.Errorf("%w: %w", ErrBadNode, err)
		return
	}
	removed = true
	return
}

// PopFirst removes and returns the smallest entry.
func (m *Map[K, V]) PopFirst() (key K, val V, ok bool, err error) {
	return m.pop(removeMin)
}

// PopLast removes and returns the largest entry.
func (m *Map[K, V]) PopLast() (key K, val V, ok bool, err error) {
	return m.pop(removeMax)
}

func (m *Map[K, V]) pop(typ toRemove) (key K, val V, ok bool, err error) {
	var zero K
	out, found, err := m.removeTop(zero, typ)
	if err != nil || !found {
		return
	}
	if key, err = m.key.Decode(out.key); err != nil {
		err = fmt.Errorf("%w: %w", ErrBadNode, err)
		return
	}
	if val, err = m.val.Decode(out.val); err != nil {
		err = fmt.Errorf("%w: %w", ErrBadNode, err)
		return
	}
	ok = true
	return
}

func (m *Map[K, V]) removeTop(key K, typ toRemove) (out rawEntry, found bool, err error) {
	if m.root == flat.Null {
		return
	}
	root, err := m.readNode(m.root)
	if err != nil {
		return
	}

	out, found, err = m.remove(m.root, root, key, typ)
	if err != nil || !found {
		return
	}

	if len(root.keys) == 0 {
		// the root drained: an internal root hands over to its only
		// child, a leaf root leaves the tree empty
		old := m.root
		if root.leaf {
			m.root = flat.Null
		} else {
			m.root = root.children[0]
		}
		m.recycleNode(old, root.leaf)
	}
	m.length--
	m.saveRoot()
	return
}

func (m *Map[K, V]) remove(addr Address, n *node, key K, typ toRemove) (out rawEntry, found bool, err error) {
	var i int
	switch typ {
	case removeMax:
		if n.leaf {
			return m.takeEntry(addr, n, len(n.keys)-1)
		}
		i = len(n.keys)
	case removeMin:
		if n.leaf {
			return m.takeEntry(addr, n, 0)
		}
	default:
		i, found, err = m.search(n, key)
		if err != nil {
			return
		}
		if n.leaf {
			if !found {
				return
			}
			return m.takeEntry(addr, n, i)
		}
	}

	childAddr := n.children[i]
	child, err := m.readNode(childAddr)
	if err != nil {
		return
	}
	if len(child.keys) <= m.minEntries() {
		return m.growChildAndRemove(addr, n, i, key, typ)
	}

	if typ == removeItem && found {
		// swap the hit with its predecessor pulled from the left
		// subtree, which has room to shrink
		out.key, out.val = n.keys[i], n.vals[i]
		pred, _, e := m.remove(childAddr, child, key, removeMax)
		if e != nil {
			err = e
			return
		}
		n.keys[i], n.vals[i] = pred.key, pred.val
		m.writeNode(addr, n)
		return
	}
	return m.remove(childAddr, child, key, typ)
}

// takeEntry removes entry i from a leaf and writes the leaf back.
func (m *Map[K, V]) takeEntry(addr Address, n *node, i int) (out rawEntry, found bool, err error) {
	n.keys, out.key = removeAt(n.keys, i)
	n.vals, out.val = removeAt(n.vals, i)
	m.writeNode(addr, n)
	found = true
	return
}

// growChildAndRemove brings child i above the minimum before the
// removal descends into it, stealing from a sibling with spare
// entries or merging with one that has none, then restarts the
// removal at n with the reshaped children.
func (m *Map[K, V]) growChildAndRemove(addr Address, n *node, i int, key K, typ toRemove) (out rawEntry, found bool, err error) {
	if i > 0 {
		leftAddr := n.children[i-1]
		left, e := m.readNode(leftAddr)
		if e != nil {
			err = e
			return
		}
		if len(left.keys) > m.minEntries() {
			// rotate the left sibling's last entry through the separator
			childAddr := n.children[i]
			child, e := m.readNode(childAddr)
			if e != nil {
				err = e
				return
			}
			var sk, sv []byte
			left.keys, sk = removeAt(left.keys, len(left.keys)-1)
			left.vals, sv = removeAt(left.vals, len(left.vals)-1)
			child.keys = insertAt(child.keys, 0, n.keys[i-1])
			child.vals = insertAt(child.vals, 0, n.vals[i-1])
			n.keys[i-1], n.vals[i-1] = sk, sv
			if !child.leaf {
				var sc Address
				left.children, sc = removeAt(left.children, len(left.children)-1)
				child.children = insertAt(child.children, 0, sc)
			}
			m.writeNode(leftAddr, left)
			m.writeNode(childAddr, child)
			m.writeNode(addr, n)
			return m.remove(addr, n, key, typ)
		}
	}
	if i < len(n.keys) {
		rightAddr := n.children[i+1]
		right, e := m.readNode(rightAddr)
		if e != nil {
			err = e
			return
		}
		if len(right.keys) > m.minEntries() {
			// rotate the right sibling's first entry through the separator
			childAddr := n.children[i]
			child, e := m.readNode(childAddr)
			if e != nil {
				err = e
				return
			}
			var sk, sv []byte
			right.keys, sk = removeAt(right.keys, 0)
			right.vals, sv = removeAt(right.vals, 0)
			child.keys = append(child.keys, n.keys[i])
			child.vals = append(child.vals, n.vals[i])
			n.keys[i], n.vals[i] = sk, sv
			if !child.leaf {
				var sc Address
				right.children, sc = removeAt(right.children, 0)
				child.children = append(child.children, sc)
			}
			m.writeNode(rightAddr, right)
			m.writeNode(childAddr, child)
			m.writeNode(addr, n)
			return m.remove(addr, n, key, typ)
		}
	}

	// both siblings are minimal: merge with the right neighbor,
	// pulling the separator down
	if i >= len(n.keys) {
		i--
	}
	childAddr := n.children[i]
	child, e := m.readNode(childAddr)
	if e != nil {
		err = e
		return
	}
	rightAddr := n.children[i+1]
	right, e := m.readNode(rightAddr)
	if e != nil {
		err = e
		return
	}

	var mk, mv []byte
	n.keys, mk = removeAt(n.keys, i)
	n.vals, mv = removeAt(n.vals, i)
	n.children, _ = removeAt(n.children, i+1)
	child.keys = append(child.keys, mk)
	child.vals = append(child.vals, mv)
	child.keys = append(child.keys, right.keys...)
	child.vals = append(child.vals, right.vals...)
	child.children = append(child.children, right.children...)
	m.writeNode(childAddr, child)
	m.writeNode(addr, n)
	m.recycleNode(rightAddr, right.leaf)

	return m.remove(addr, n, key, typ)
}
