//go:build debug

package chunk

import "fmt"

// assertClass panics if class is outside the configured size classes.
// Only enabled with -tags debug.
func assertClass(method string, class, count int) {
	if class < 0 || class >= count {
		panic(fmt.Sprintf("%s: class %d of %d", method, class, count))
	}
}

// assertAddress panics if addr cannot be a chunk address.
// Only enabled with -tags debug.
func assertAddress(method string, addr Address, floor int64) {
	if int64(addr) < floor {
		panic(fmt.Sprintf("%s: address %d below %d", method, addr, floor))
	}
}
