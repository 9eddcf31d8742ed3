// Package kv is a small persistent key-value store: an ordered byte
// map over a single memory-mapped file, values compressed with
// snappy.
package kv

import (
	"github.com/dacapoday/flat/btreemap"
	"github.com/dacapoday/flat/codec"
	"github.com/dacapoday/flat/mem"
)

// Entry bounds. Keys are capped outright; values up to MaxValSize
// always fit and larger ones only as far as compression takes them.
const (
	MaxKeySize = 128
	MaxValSize = 2048
)

type Map = btreemap.Map[[]byte, []byte]

type DB struct {
	file *mem.File
	tree *Map
}

// Open maps the store at path, creating it when the file is new.
func Open(path string) (db *DB, err error) {
	file, err := mem.OpenFile(path)
	if err != nil {
		return
	}

	tree, err := btreemap.Init(file, codec.Bytes(MaxKeySize), codec.Snappy(codec.Bytes(MaxValSize)), opt{})
	if err != nil {
		file.Close()
		return
	}

	db = &DB{file: file, tree: tree}
	return
}

type opt struct{}

func (o opt) MagicCode() [4]byte {
	return [4]byte{'D', 'I', 'C', 'T'}
}

// Degree returns the branching factor. At the store's entry bounds two
// node chunks fit one page.
func (o opt) Degree() int {
	return 6
}

// File returns the backing mapped file.
func (db *DB) File() *mem.File {
	return db.file
}

// Len returns the number of entries.
func (db *DB) Len() uint64 {
	return db.tree.Len()
}

// Get returns the value stored under key.
// Returns nil if key does not exist.
func (db *DB) Get(key []byte) (val []byte, err error) {
	val, ok, err := db.tree.Get(key)
	if !ok {
		val = nil
	}
	return
}

// Set inserts or updates a key-value pair.
func (db *DB) Set(key []byte, val []byte) (err error) {
	_, _, err = db.tree.Insert(key, val)
	return
}

// Delete removes key. Deleting an absent key is not an error.
func (db *DB) Delete(key []byte) (err error) {
	_, _, err = db.tree.Remove(key)
	return
}

// Has reports whether key is present.
func (db *DB) Has(key []byte) (bool, error) {
	return db.tree.Contains(key)
}

// First returns the smallest entry, nil when the store is empty.
func (db *DB) First() (key, val []byte, err error) {
	key, val, _, err = db.tree.First()
	return
}

// Last returns the largest entry, nil when the store is empty.
func (db *DB) Last() (key, val []byte, err error) {
	key, val, _, err = db.tree.Last()
	return
}

// PopFirst removes and returns the smallest entry, nil when the
// store is empty.
func (db *DB) PopFirst() (key, val []byte, err error) {
	key, val, _, err = db.tree.PopFirst()
	return
}

// PopLast removes and returns the largest entry, nil when the store
// is empty.
func (db *DB) PopLast() (key, val []byte, err error) {
	key, val, _, err = db.tree.PopLast()
	return
}

// Clear removes every entry.
func (db *DB) Clear() error {
	return db.tree.Clear()
}

// Sync flushes the mapped pages to disk.
func (db *DB) Sync() error {
	return db.file.Sync()
}

// Close flushes and unmaps the store.
func (db *DB) Close() error {
	return db.file.Close()
}
