package chunk

import "github.com/dacapoday/flat"

var (
	ErrNoSpace     = flat.ErrNoSpace
	ErrBadFreelist = flat.ErrBadFreelist
	ErrUnsupported = flat.ErrUnsupported
)
