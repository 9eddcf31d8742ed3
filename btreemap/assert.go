//go:build debug

package btreemap

import "fmt"

// assertNode validates node shape before it is written.
// Only enabled with -tags debug.
func assertNode(method string, n *node, maxEntries int) {
	if len(n.keys) != len(n.vals) {
		panic(fmt.Sprintf("%s: %d keys, %d vals", method, len(n.keys), len(n.vals)))
	}
	if len(n.keys) > maxEntries {
		panic(fmt.Sprintf("%s: %d entries exceeds %d", method, len(n.keys), maxEntries))
	}
	if !n.leaf && len(n.children) != len(n.keys)+1 {
		panic(fmt.Sprintf("%s: %d children for %d keys", method, len(n.children), len(n.keys)))
	}
}
