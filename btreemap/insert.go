// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btreemap

import (
	"fmt"

	"github.com/dacapoday/flat"
)

// Insert stores value under key, returning the value it replaced.
//
// Keys and values beyond the codec bounds are rejected before
// anything is written. A refused memory grow surfaces as ErrNoSpace
// and loses no entry.
func (m *Map[K, V]) Insert(key K, value V) (prev V, replaced bool, err error) {
	kb := m.key.Append(nil, key)
	if uint32(len(kb)) > m.maxKey {
		err = fmt.Errorf("btreemap.Insert: %d bytes: %w", len(kb), ErrKeyTooLarge)
		return
	}
	vb := m.val.Append(nil, value)
	if uint32(len(vb)) > m.maxVal {
		err = fmt.Errorf("btreemap.Insert: %d bytes: %w", len(vb), ErrValueTooLarge)
		return
	}

	if m.root == flat.Null {
		addr, e := m.alloc.Allocate(classLeaf)
		if e != nil {
			err = e
			return
		}
		m.writeNode(addr, &node{leaf: true, keys: [][]byte{kb}, vals: [][]byte{vb}})
		m.root, m.length = addr, 1
		m.saveRoot()
		return
	}

	root, err := m.readNode(m.root)
	if err != nil {
		return
	}
	if len(root.keys) == m.maxEntries() {
		// grow the tree by one level before descending
		top, e := m.alloc.Allocate(classInternal)
		if e != nil {
			err = e
			return
		}
		sib, e := m.alloc.Allocate(classOf(root.leaf))
		if e != nil {
			m.alloc.Recycle(top, classInternal)
			err = e
			return
		}

		midKey, midVal, right := split(root, m.degree)
		m.writeNode(m.root, root)
		m.writeNode(sib, right)
		parent := &node{
			keys:     [][]byte{midKey},
			vals:     [][]byte{midVal},
			children: []Address{m.root, sib},
		}
		m.writeNode(top, parent)
		m.root = top
		m.saveRoot()
		root = parent
	}

	raw, was, e := m.insert(m.root, root, key, kb, vb)
	if e != nil {
		err = e
		return
	}
	if !was {
		m.length++
		m.saveRoot()
		return
	}
	if prev, err = m.val.Decode(raw); err != nil {
		err = fmt.Errorf("%w: %w", ErrBadNode, err)
		return
	}
	replaced = true
	return
}

// insert descends from a non-full node, splitting any full child
// ahead of the descent so a leaf always has room.
func (m *Map[K, V]) insert(addr Address, n *node, key K, kb, vb []byte) (prev []byte, replaced bool, err error) {
	i, found, err := m.search(n, key)
	if err != nil {
		return
	}
	if found {
		prev, replaced = n.vals[i], true
		n.vals[i] = vb
		m.writeNode(addr, n)
		return
	}
	if n.leaf {
		n.keys = insertAt(n.keys, i, kb)
		n.vals = insertAt(n.vals, i, vb)
		m.writeNode(addr, n)
		return
	}

	childAddr := n.children[i]
	child, err := m.readNode(childAddr)
	if err != nil {
		return
	}
	if len(child.keys) == m.maxEntries() {
		sib, e := m.alloc.Allocate(classOf(child.leaf))
		if e != nil {
			err = e
			return
		}

		midKey, midVal, right := split(child, m.degree)
		m.writeNode(childAddr, child)
		m.writeNode(sib, right)
		n.keys = insertAt(n.keys, i, midKey)
		n.vals = insertAt(n.vals, i, midVal)
		n.children = insertAt(n.children, i+1, sib)
		m.writeNode(addr, n)

		mid, e := m.key.Decode(midKey)
		if e != nil {
			err = fmt.Errorf("%w: %w", ErrBadNode, e)
			return
		}
		switch cmp := m.key.Compare(key, mid); {
		case cmp == 0:
			// the promoted separator is the key being inserted
			prev, replaced = n.vals[i], true
			n.vals[i] = vb
			m.writeNode(addr, n)
			return
		case cmp > 0:
			childAddr, child = sib, right
		}
	}
	return m.insert(childAddr, child, key, kb, vb)
}
