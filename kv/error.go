package kv

import "github.com/dacapoday/flat"

var (
	ErrNoSpace       = flat.ErrNoSpace
	ErrKeyTooLarge   = flat.ErrKeyTooLarge
	ErrValueTooLarge = flat.ErrValueTooLarge
	ErrFileTruncated = flat.ErrFileTruncated
)
