package btreemap

import (
	"fmt"

	"github.com/dacapoday/flat"
)

// Bound selects one end of a Range.
type Bound[K any] struct {
	key  K
	kind int
}

const (
	boundNone = iota
	boundInclude
	boundExclude
)

// Include bounds a range at key, keeping an exact hit.
func Include[K any](key K) Bound[K] { return Bound[K]{key: key, kind: boundInclude} }

// Exclude bounds a range at key, skipping an exact hit.
func Exclude[K any](key K) Bound[K] { return Bound[K]{key: key, kind: boundExclude} }

// Unbounded leaves one end of a Range open.
func Unbounded[K any]() Bound[K] { return Bound[K]{} }

// frame records how far iteration has progressed inside one node.
// A leaf's pos is the next entry to emit. An internal node alternates:
// even pos 2i descends into child i, odd pos 2i+1 emits entry i.
type frame struct {
	node *node
	pos  int
}

// Iter is a forward cursor over a Map.
//
// The cursor is positioned on construction; use Valid, Key and Val to
// read the current entry and Next to advance. Mutating the map
// invalidates every open cursor.
type Iter[K, V any] struct {
	m     *Map[K, V]
	stack []frame
	upper Bound[K]
	key   K
	val   V
	valid bool
	err   error
}

// Iter positions a cursor on the smallest entry.
func (m *Map[K, V]) Iter() *Iter[K, V] {
	return m.Range(Unbounded[K](), Unbounded[K]())
}

// Range positions a cursor on the smallest entry within lower and
// iterates up to upper.
func (m *Map[K, V]) Range(lower, upper Bound[K]) *Iter[K, V] {
	it := &Iter[K, V]{m: m, upper: upper}
	if m.root == flat.Null {
		return it
	}
	if lower.kind == boundNone {
		if it.push(m.root) {
			it.advance()
		}
		return it
	}

	addr := m.root
	for {
		if !it.push(addr) {
			return it
		}
		f := &it.stack[len(it.stack)-1]
		n := f.node
		i, found, err := m.search(n, lower.key)
		if err != nil {
			it.err = err
			it.stack = nil
			return it
		}
		if n.leaf {
			if found && lower.kind == boundExclude {
				i++
			}
			f.pos = i
			break
		}
		if found {
			if lower.kind == boundExclude {
				f.pos = 2*i + 2
			} else {
				f.pos = 2*i + 1
			}
			break
		}
		// entry i follows the child i subtree that holds the bound
		f.pos = 2*i + 1
		addr = n.children[i]
	}
	it.advance()
	return it
}

// IterUpperBound positions a cursor on the largest entry whose key is
// strictly below bound and iterates forward from there with no upper
// limit. Without such an entry the cursor starts exhausted.
func (m *Map[K, V]) IterUpperBound(bound K) *Iter[K, V] {
	it := &Iter[K, V]{m: m}
	if m.root == flat.Null {
		return it
	}

	var best []frame
	addr := m.root
	for {
		if !it.push(addr) {
			return it
		}
		f := &it.stack[len(it.stack)-1]
		n := f.node
		i, _, err := m.search(n, bound)
		if err != nil {
			it.err = err
			it.stack = nil
			return it
		}
		if n.leaf {
			if i > 0 {
				f.pos = i - 1
			} else if best != nil {
				it.stack = best
			} else {
				it.stack = nil
			}
			break
		}
		if i > 0 {
			// entry i-1 is the closest predecessor seen on this path;
			// child i may still hold a closer one
			f.pos = 2*i - 1
			best = append([]frame(nil), it.stack...)
		}
		f.pos = 2*i + 1
		addr = n.children[i]
	}
	it.advance()
	return it
}

// Valid reports whether the cursor is on an entry.
func (it *Iter[K, V]) Valid() bool {
	return it.valid
}

// Key returns the current key. Only meaningful while Valid.
func (it *Iter[K, V]) Key() K {
	return it.key
}

// Val returns the current value. Only meaningful while Valid.
func (it *Iter[K, V]) Val() V {
	return it.val
}

// Error returns the first failure encountered while iterating.
func (it *Iter[K, V]) Error() error {
	return it.err
}

// Next advances to the next entry.
func (it *Iter[K, V]) Next() bool {
	return it.advance()
}

func (it *Iter[K, V]) advance() bool {
	it.valid = false
	if it.err != nil {
		return false
	}
	for len(it.stack) > 0 {
		f := &it.stack[len(it.stack)-1]
		n := f.node
		if n.leaf {
			if f.pos < len(n.keys) {
				i := f.pos
				f.pos++
				return it.emit(n, i)
			}
		} else if f.pos&1 == 0 {
			if child := f.pos / 2; child < len(n.children) {
				f.pos++
				if !it.push(n.children[child]) {
					return false
				}
				continue
			}
		} else if i := f.pos / 2; i < len(n.keys) {
			f.pos++
			return it.emit(n, i)
		}
		it.stack = it.stack[:len(it.stack)-1]
	}
	return false
}

func (it *Iter[K, V]) emit(n *node, i int) bool {
	key, err := it.m.key.Decode(n.keys[i])
	if err != nil {
		it.fail(err)
		return false
	}
	if it.upper.kind != boundNone {
		cmp := it.m.key.Compare(key, it.upper.key)
		if cmp > 0 || (cmp == 0 && it.upper.kind == boundExclude) {
			it.stack = nil
			return false
		}
	}
	val, err := it.m.val.Decode(n.vals[i])
	if err != nil {
		it.fail(err)
		return false
	}
	it.key, it.val = key, val
	it.valid = true
	return true
}

func (it *Iter[K, V]) push(addr Address) bool {
	n, err := it.m.readNode(addr)
	if err != nil {
		it.err = err
		it.stack = nil
		return false
	}
	it.stack = append(it.stack, frame{node: n})
	return true
}

func (it *Iter[K, V]) fail(err error) {
	it.err = fmt.Errorf("%w: %w", ErrBadNode, err)
	it.stack = nil
}
