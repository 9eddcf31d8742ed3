// Copyright 2025 dacapoday
// SPDX-License-Identifier: Apache-2.0

package btreemap

// Options configures a map created by New or opened by Load.
type Options interface {
	MagicCode() [4]byte
}

// Degree optionally overrides the branching factor of a new map.
// A node holds between Degree-1 and 2*Degree-1 entries. The degree is
// persisted in the header; Load ignores this option and uses the
// stored one. Degrees below 2 or above 32768 fall back to the default.
type Degree interface {
	Degree() int
}

const (
	defaultDegree = 6
	maxDegree     = 32768 // keeps 2*degree-1 inside the node's u16 count field
)

func getDegree(opt any) int {
	if o, ok := opt.(Degree); ok {
		if degree := o.Degree(); degree >= 2 && degree <= maxDegree {
			return degree
		}
	}
	return defaultDegree
}

type defaultOption struct{}

func (defaultOption) MagicCode() [4]byte { return [4]byte{'F', 'L', 'A', 'T'} }

type testOption struct {
	magicCode [4]byte
	degree    int
}

func (o testOption) MagicCode() [4]byte {
	if o.magicCode == ([4]byte{}) {
		return defaultOption{}.MagicCode()
	}
	return o.magicCode
}

func (o testOption) Degree() int { return o.degree }
