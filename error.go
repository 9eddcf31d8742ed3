package flat

import "errors"

var (
	ErrNoSpace          = errors.New("no space")
	ErrKeyTooLarge      = errors.New("key too large")
	ErrValueTooLarge    = errors.New("value too large")
	ErrUnknownMagicCode = errors.New("unknown magic code")
	ErrUnsupported      = errors.New("unsupported")
	ErrBadNode          = errors.New("bad node")
	ErrBadFreelist      = errors.New("bad freelist")
	ErrOutOfRange       = errors.New("out of range")
	ErrFileEmpty        = errors.New("empty file")
	ErrFileTruncated    = errors.New("file truncated")
)
