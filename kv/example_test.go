package kv_test

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dacapoday/flat/kv"
)

func Example() {
	dir, err := os.MkdirTemp("", "kv-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	db, err := kv.Open(filepath.Join(dir, "example.kv"))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	db.Set([]byte("b"), []byte("2"))
	db.Set([]byte("a"), []byte("1"))

	for it := db.Iter(); it.Valid(); it.Next() {
		fmt.Printf("%s=%s\n", it.Key(), it.Val())
	}

	// Output:
	// a=1
	// b=2
}
