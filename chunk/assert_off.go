//go:build !debug

package chunk

// assertClass is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertClass(string, int, int) {}

// assertAddress is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertAddress(string, Address, int64) {}
