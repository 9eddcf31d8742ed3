package btreemap_test

import (
	"fmt"

	"github.com/dacapoday/flat/btreemap"
	"github.com/dacapoday/flat/codec"
	"github.com/dacapoday/flat/mem"
)

func ExampleMap() {
	var region mem.Vec
	m, err := btreemap.New(&region, codec.U64{}, codec.Str(16), nil)
	if err != nil {
		panic(err)
	}

	m.Insert(3, "three")
	m.Insert(1, "one")
	m.Insert(2, "two")
	m.Remove(2)

	for it := m.Iter(); it.Valid(); it.Next() {
		fmt.Println(it.Key(), it.Val())
	}
	// Output:
	// 1 one
	// 3 three
}

func ExampleMap_Range() {
	var region mem.Vec
	m, err := btreemap.New(&region, codec.U64{}, codec.Str(16), nil)
	if err != nil {
		panic(err)
	}
	for k := uint64(1); k <= 9; k++ {
		m.Insert(k*10, "x")
	}

	it := m.Range(btreemap.Include(uint64(30)), btreemap.Exclude(uint64(60)))
	for ; it.Valid(); it.Next() {
		fmt.Println(it.Key())
	}
	// Output:
	// 30
	// 40
	// 50
}
