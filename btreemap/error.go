package btreemap

import "github.com/dacapoday/flat"

var (
	ErrNoSpace          = flat.ErrNoSpace
	ErrKeyTooLarge      = flat.ErrKeyTooLarge
	ErrValueTooLarge    = flat.ErrValueTooLarge
	ErrUnknownMagicCode = flat.ErrUnknownMagicCode
	ErrUnsupported      = flat.ErrUnsupported
	ErrBadNode          = flat.ErrBadNode
	ErrBadFreelist      = flat.ErrBadFreelist
	ErrFileEmpty        = flat.ErrFileEmpty
)
