package main

import (
	"bytes"
	"fmt"

	"github.com/dacapoday/flat/kv"
)

func main() {
	db, err := kv.Open("kv_sample.kv")
	if err != nil {
		panic(err)
	}
	defer db.Close()

	err = db.Set([]byte("hello"), []byte("world"))
	if err != nil {
		panic(err)
	}

	for i := range 1000 {
		key := fmt.Appendf(nil, "bk%05dke", i)
		val := fmt.Appendf(nil, "bv%05dve", i)
		err = db.Set(key, val)
		if err != nil {
			panic(err)
		}
	}

	key := append([]byte("bigkey["), bytes.Repeat([]byte("k"), kv.MaxKeySize-14)...)
	key = append(key, "]bigkey"...)

	err = db.Set(key, []byte("bigkey-val"))
	if err != nil {
		panic(err)
	}

	err = db.Set([]byte("empty-val-key"), []byte{})
	if err != nil {
		panic(err)
	}

	val := append([]byte("bigval["), bytes.Repeat([]byte("v00000"), 1000)...)
	val = append(val, "]bigval"...)

	err = db.Set([]byte("bigval-key"), val)
	if err != nil {
		panic(err)
	}
}
