package kv

import "github.com/dacapoday/flat/btreemap"

// Iter is a forward cursor over the store.
//
// The cursor is positioned on construction; use Valid, Key and Val to
// read the current entry and Next to advance. Mutating the store
// invalidates every open cursor.
type Iter = btreemap.Iter[[]byte, []byte]

// Bound selects one end of a Range.
type Bound = btreemap.Bound[[]byte]

// Include bounds a range at key, keeping an exact hit.
func Include(key []byte) Bound { return btreemap.Include(key) }

// Exclude bounds a range at key, skipping an exact hit.
func Exclude(key []byte) Bound { return btreemap.Exclude(key) }

// Unbounded leaves one end of a Range open.
func Unbounded() Bound { return btreemap.Unbounded[[]byte]() }

// Iter positions a cursor on the first entry.
func (db *DB) Iter() *Iter {
	return db.tree.Iter()
}

// Range positions a cursor on the first entry within lower and
// iterates up to upper.
func (db *DB) Range(lower, upper Bound) *Iter {
	return db.tree.Range(lower, upper)
}

// IterUpperBound positions a cursor on the last key strictly below
// bound and iterates forward from there.
func (db *DB) IterUpperBound(bound []byte) *Iter {
	return db.tree.IterUpperBound(bound)
}
