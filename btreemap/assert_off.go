//go:build !debug

package btreemap

// assertNode is a no-op in production.
// Enable with -tags debug for runtime checks.
func assertNode(string, *node, int) {}
