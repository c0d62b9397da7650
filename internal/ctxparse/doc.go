// Package ctxparse turns configuration file content into a small tagged
// tree of mappings, sequences and scalars and walks it without recursion,
// so arbitrarily deep documents cannot exhaust the goroutine stack.
package ctxparse
